package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	CheckoutIdempotencyTTL = 7 * 24 * time.Hour
	WebhookIdempotencyTTL  = 24 * time.Hour

	// pendingIdempotencyTTL bounds how long a crashed request blocks its key.
	pendingIdempotencyTTL = 2 * time.Minute

	idempotencyHeader      = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLen   = 200
)

type idempotencyState string

const (
	statePending  idempotencyState = "pending"
	stateComplete idempotencyState = "complete"
)

type idempotencyRecord struct {
	State       idempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	Status      int              `json:"status,omitempty"`
	Body        string           `json:"body,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
}

// Idempotency makes a route safe to retry with the same Idempotency-Key.
// The key is reserved before the handler runs, so a concurrent duplicate is
// rejected instead of placing a second order. Completed responses are kept
// for ttl and replayed; server errors release the key. Requests without the
// header, and every request when store is nil, pass straight through.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = WebhookIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeBadRequest, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(idempotencyScope(r), idempotencyKey)

			reserved, err := store.SetNX(ctx, key, encodeRecord(idempotencyRecord{
				State:       statePending,
				RequestHash: requestHash,
			}), pendingIdempotencyTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayOrReject(w, r, store, key, requestHash, logg)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, capture: true}
			next.ServeHTTP(rec, r)

			if rec.Status() >= http.StatusInternalServerError {
				if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
					logg.Error(ctx, "release idempotency key", delErr)
				}
				return
			}

			done := idempotencyRecord{
				State:       stateComplete,
				RequestHash: requestHash,
				Status:      rec.Status(),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
			}
			if setErr := store.Set(ctx, key, encodeRecord(done), ttl); setErr != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", setErr)
			}
		})
	}
}

func replayOrReject(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, requestHash string, logg *logger.Logger) {
	ctx := r.Context()
	stored, err := store.Get(ctx, key)
	if err != nil && !pkgredis.IsMiss(err) {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var record idempotencyRecord
	if stored == "" {
		record.State = statePending
		record.RequestHash = requestHash
	} else if decodeErr := json.Unmarshal([]byte(stored), &record); decodeErr != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode idempotency record"))
		return
	}

	switch {
	case record.RequestHash != requestHash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != stateComplete:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(idempotentReplayHeader, "true")
		w.WriteHeader(record.Status)
		if decoded, decodeErr := base64.StdEncoding.DecodeString(record.Body); decodeErr == nil {
			_, _ = w.Write(decoded)
		}
	}
}

// idempotencyScope ties a key to the route and the cart, so two shoppers
// cannot collide on the same client-generated key.
func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{r.Method, r.URL.Path, CartToken(r)}, "|")
}

func encodeRecord(record idempotencyRecord) string {
	payload, _ := json.Marshal(record)
	return string(payload)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
