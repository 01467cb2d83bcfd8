package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, handler http.Handler, method, origin string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCORS_WildcardOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"*"}})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://shop.example", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ExplicitOriginList(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://shop.example", nil)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(t, handler, http.MethodGet, "https://evil.example", nil)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_CredentialsWithWildcardEchoesOrigin(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
	})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://shop.example", nil)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// Every origin qualifies, not just the first seen.
	w = corsRequest(t, handler, http.MethodGet, "https://app.example", nil)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins: []string{"https://shop.example"},
		MaxAge:       600,
	})(okHandler())

	w := corsRequest(t, handler, http.MethodOptions, "https://shop.example", func(r *http.Request) {
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.Header.Set("Access-Control-Request-Headers", "api_key")
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "api_key", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Vary"))
}
