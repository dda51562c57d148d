package instrument

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/pulse/pkg/contextkeys"
)

func TestHeaderUserResolver(t *testing.T) {
	resolve := HeaderUserResolver("X-User-ID")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := resolve(req)
	assert.False(t, ok)

	req.Header.Set("X-User-ID", "  ")
	_, ok = resolve(req)
	assert.False(t, ok)

	req.Header.Set("X-User-ID", " 17 ")
	id, ok := resolve(req)
	assert.True(t, ok)
	assert.Equal(t, "17", id)
}

func TestUserMiddleware(t *testing.T) {
	var got string
	handler := UserMiddleware(HeaderUserResolver("X-User-ID"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextkeys.GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "17")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "17", got)

	// an id already in the context wins
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "17")
	req = req.WithContext(contextkeys.WithUserID(req.Context(), "3"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "3", got)
}
