package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"marketplace-recon-api/internal/logger"
)

func newEngine(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceAudit(logger.Discard(), func() uint64 { return 42 }), Recover(logger.Discard()))
	g := r.Group("/", InternalAuth(token))
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(OperatorKey)) })
	g.POST("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r *gin.Engine, method, path, token, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	req.Header.Set(OperatorHeader, "ana")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInternalAuth(t *testing.T) {
	r := newEngine("s3cret")

	w := do(r, http.MethodGet, "/ping", "s3cret", "10.0.0.8:5000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", w.Body.String())
	assert.Equal(t, "42", w.Header().Get(TraceIDHeader))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ping", "wrong", "10.0.0.8:5000").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ping", "", "127.0.0.1:5000").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/ping", "s3cret", "8.8.8.8:5000").Code)
}

func TestInternalAuth_EmptyConfiguredTokenRejectsAll(t *testing.T) {
	r := newEngine("")
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ping", "", "127.0.0.1:5000").Code)
}

func TestRecover(t *testing.T) {
	r := newEngine("s3cret")
	w := do(r, http.MethodPost, "/panic", "s3cret", "127.0.0.1:5000")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"trace_id":"42"`)
}
