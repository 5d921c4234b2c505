// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package storage stores uploaded event images on local disk.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/config"
	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service writes decoded uploads into a directory served at a public URL prefix.
type Service struct {
	dir       string
	publicURL string
	maxBytes  int64
}

func NewService(cfg *config.StorageConfig) (*Service, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Service{
		dir:       cfg.UploadDir,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		maxBytes:  int64(cfg.MaxUploadMB) << 20,
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *Service) Dir() string {
	return s.dir
}

// SaveBase64 decodes a base64 payload, optionally in data URL form, and stores it
// under a random name. Only JPEG, PNG, GIF and WebP images are accepted.
// fileName is recorded in the log only; the stored name is always generated.
func (s *Service) SaveBase64(ctx context.Context, payload, fileName string) (string, error) {
	if _, data, ok := strings.Cut(payload, ";base64,"); ok {
		payload = data
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", apperr.New(apperr.KindValidation, "Please provide both file and fileName")
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxBytes+2 {
		return "", s.tooLarge()
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.New(apperr.KindValidation, "File must be base64 encoded")
	}
	if int64(len(data)) > s.maxBytes {
		return "", s.tooLarge()
	}

	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", apperr.New(apperr.KindValidation, "Only JPEG, PNG, GIF and WebP images are allowed")
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	slog.InfoContext(ctx, "upload_stored", "file", name, "original_name", fileName, "bytes", len(data))
	return s.publicURL + "/" + name, nil
}

func (s *Service) tooLarge() error {
	return apperr.New(apperr.KindValidation, fmt.Sprintf("File exceeds the %d MB limit", s.maxBytes>>20))
}
