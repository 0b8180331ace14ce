package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("first forwarded hop wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		assert.Equal(t, "10.0.0.1", ClientIPFromRequest(r))
	})

	t.Run("real ip header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", " 10.0.0.9 ")
		assert.Equal(t, "10.0.0.9", ClientIPFromRequest(r))
	})

	t.Run("remote addr without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[::1]:5432"
		assert.Equal(t, "::1", ClientIPFromRequest(r))
	})
}
