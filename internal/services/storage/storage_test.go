// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package storage_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/config"
	"codeberg.org/auisnexus/nexus/internal/services/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newService(t *testing.T, maxMB int) *storage.Service {
	t.Helper()
	svc, err := storage.NewService(&config.StorageConfig{
		UploadDir:   filepath.Join(t.TempDir(), "uploads"),
		PublicURL:   "http://localhost:5000/uploads/",
		MaxUploadMB: maxMB,
	})
	require.NoError(t, err)
	return svc
}

func TestSaveBase64(t *testing.T) {
	svc := newService(t, 1)
	payload := base64.StdEncoding.EncodeToString(pngHeader)

	url, err := svc.SaveBase64(context.Background(), payload, "poster.png")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:5000/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(svc.Dir(), filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestSaveBase64_DataURL(t *testing.T) {
	svc := newService(t, 1)
	payload := "data:image/gif;base64," + base64.StdEncoding.EncodeToString([]byte("GIF89a\x01\x00\x01\x00"))

	url, err := svc.SaveBase64(context.Background(), payload, "anim.gif")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".gif"))
}

func TestSaveBase64_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("plain text file"))},
		{"too large", base64.StdEncoding.EncodeToString(append(pngHeader, bytes.Repeat([]byte{0}, 2<<20)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, 1)

			_, err := svc.SaveBase64(context.Background(), tt.payload, "file")

			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			entries, readErr := os.ReadDir(svc.Dir())
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}
