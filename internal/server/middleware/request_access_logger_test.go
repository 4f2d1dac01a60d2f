package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err, "生成的 request_id 应是合法 uuid")
}

func TestRequestIDPassthrough(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-from-caller")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-from-caller", w.Header().Get("X-Request-Id"))
	assert.Equal(t, http.StatusOK, w.Code)
}
