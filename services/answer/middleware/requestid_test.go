// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for request-id middleware

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := performRequest(router, nil)

	echoed := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, echoed)
	assert.Equal(t, echoed, seen)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, map[string]string{RequestIDHeader: "upstream-123"})

	assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	performRequest(router, nil)

	assert.Empty(t, seen)
}
