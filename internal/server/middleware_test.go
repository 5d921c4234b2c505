// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/auisnexus/nexus/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}}

	e := echo.New()
	e.Use(corsMiddleware(cfg))
	e.GET("/api/events", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.Header.Set(echo.HeaderOrigin, "https://evil.example")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	e := newEcho()
	e.Use(requestLogger())
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestResolveTLSMode(t *testing.T) {
	free := func(int) bool { return true }
	busy := func(int) bool { return false }

	tests := []struct {
		name     string
		tls      config.TLSConfig
		host     string
		portFree func(int) bool
		expected TLSMode
	}{
		{"explicit off", config.TLSConfig{Mode: "off"}, "example.com", free, TLSModeOff},
		{"explicit acme", config.TLSConfig{Mode: "acme"}, "localhost", free, TLSModeACME},
		{"explicit manual", config.TLSConfig{Mode: "manual"}, "localhost", free, TLSModeManual},
		{"auto on localhost", config.TLSConfig{Mode: "auto"}, "localhost", free, TLSModeOff},
		{"auto with cert files", config.TLSConfig{Mode: "auto", CertFile: "c.pem", KeyFile: "k.pem"}, "example.com", free, TLSModeManual},
		{"auto with acme email", config.TLSConfig{Mode: "auto", Email: "ops@example.com"}, "example.com", free, TLSModeACME},
		{"auto with busy ports", config.TLSConfig{Mode: "auto", Email: "ops@example.com"}, "example.com", busy, TLSModeOff},
		{"auto on ip address", config.TLSConfig{Mode: "auto", Email: "ops@example.com"}, "203.0.113.7", free, TLSModeOff},
		{"auto without email", config.TLSConfig{Mode: ""}, "example.com", free, TLSModeOff},
		{"unknown mode", config.TLSConfig{Mode: "selfsigned"}, "localhost", free, TLSModeOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Host: tt.host}, TLS: tt.tls}
			assert.Equal(t, tt.expected, resolveTLSMode(cfg, tt.portFree))
		})
	}
}

func TestSetupManual_MissingFiles(t *testing.T) {
	_, err := setupManual(&config.Config{TLS: config.TLSConfig{CertFile: "missing.pem"}})
	assert.Error(t, err)

	_, err = setupManual(&config.Config{TLS: config.TLSConfig{CertFile: "missing.pem", KeyFile: "missing.key"}})
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, fingerprint(&tls.Certificate{}))

	fp := fingerprint(&tls.Certificate{Certificate: [][]byte{[]byte("leaf")}})
	assert.Len(t, strings.Split(fp, ":"), 32)
	assert.Equal(t, fp, fingerprint(&tls.Certificate{Certificate: [][]byte{[]byte("leaf")}}))
	assert.NotEqual(t, fp, fingerprint(&tls.Certificate{Certificate: [][]byte{[]byte("other")}}))
}
