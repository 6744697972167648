package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"ledger/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	old := logger.Log
	defer func() { logger.Log = old }()

	var buf bytes.Buffer
	logger.SetOutput(&buf)

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/missing", func(c *gin.Context) { c.Status(404) })

	req := httptest.NewRequest("GET", "/missing?x=1", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"path":"/missing?x=1"`)
	assert.Contains(t, out, `"status":404`)
}
