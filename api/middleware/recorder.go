package middleware

import (
	"bytes"
	"net/http"
)

// responseRecorder tracks the status and size written through it and, when
// capture is set, keeps a copy of the body.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	capture bool
	body    bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if r.capture {
		r.body.Write(b)
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Status reports the written status, 200 when the handler wrote nothing.
func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *responseRecorder) wroteHeader() bool {
	return r.status != 0
}
