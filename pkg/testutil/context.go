package testutil

import (
	"net/http"
	"time"

	"ktp/pkg/requestcontext"
)

// WithRequestTime pins the request clock, as the requesttime middleware would.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
