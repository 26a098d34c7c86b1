package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/angelmondragon/storefront-backend/pkg/viacep"
)

const (
	zipcodeDigits   = 8
	defaultCacheTTL = 24 * time.Hour
	// upper bound for a shared lookup once it no longer follows any caller
	sharedLookupTimeout = 15 * time.Second
)

// Service resolves Brazilian postal codes to pre-fill the checkout form.
type Service interface {
	Lookup(ctx context.Context, zipcode string) (types.Address, error)
}

type lookupClient interface {
	Lookup(ctx context.Context, zipcode string) (types.Address, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	AddressKey(zipcode string) string
}

type service struct {
	client lookupClient
	cache  cacheStore
	ttl    time.Duration
	logg   *logger.Logger
	group  singleflight.Group
}

// NewService wires the lookup client. cache and logg may be nil; without a
// cache every call goes to the client.
func NewService(client lookupClient, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("zipcode client required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{client: client, cache: cache, ttl: ttl, logg: logg}, nil
}

// NormalizeZipcode strips everything but digits and requires exactly eight.
func NormalizeZipcode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != zipcodeDigits {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid zipcode").
			WithDetails(map[string]string{"zipcode": "must contain exactly 8 digits"})
	}
	return digits, nil
}

func (s *service) Lookup(ctx context.Context, raw string) (types.Address, error) {
	zipcode, err := NormalizeZipcode(raw)
	if err != nil {
		return types.Address{}, err
	}

	if addr, ok := s.cached(ctx, zipcode); ok {
		return addr, nil
	}

	// the shared call outlives the caller that started it; every caller
	// still stops waiting when its own ctx ends
	shared := s.group.DoChan(zipcode, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		if addr, ok := s.cached(lookupCtx, zipcode); ok {
			return addr, nil
		}
		addr, err := s.client.Lookup(lookupCtx, zipcode)
		if err != nil {
			return types.Address{}, err
		}
		s.store(lookupCtx, zipcode, addr)
		return addr, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return types.Address{}, ctx.Err()
	case res = <-shared:
	}
	value, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, viacep.ErrNotFound) {
			return types.Address{}, pkgerrors.New(pkgerrors.CodeNotFound, "zipcode not found")
		}
		return types.Address{}, err
	}
	return value.(types.Address), nil
}

func (s *service) cached(ctx context.Context, zipcode string) (types.Address, bool) {
	if s.cache == nil {
		return types.Address{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.AddressKey(zipcode))
	if err != nil {
		if !redis.IsMiss(err) {
			s.warn(ctx, "address cache read failed", err)
		}
		return types.Address{}, false
	}
	var addr types.Address
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		s.warn(ctx, "address cache entry unreadable", err)
		return types.Address{}, false
	}
	return addr, true
}

func (s *service) store(ctx context.Context, zipcode string, addr types.Address) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(addr)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.AddressKey(zipcode), string(payload), s.ttl); err != nil {
		s.warn(ctx, "address cache write failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
