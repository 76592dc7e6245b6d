package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func requestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	rec := httptest.NewRecorder()
	requestIDRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Body.String())
}

func TestRequestIDPreserved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-from-upstream")
	rec := httptest.NewRecorder()
	requestIDRouter().ServeHTTP(rec, req)

	assert.Equal(t, "req-from-upstream", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "req-from-upstream", rec.Body.String())
}
