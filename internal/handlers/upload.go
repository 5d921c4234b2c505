// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/auisnexus/nexus/internal/services/storage"
	"github.com/labstack/echo/v4"
)

// UploadHandlers accepts event images.
type UploadHandlers struct {
	storage *storage.Service
}

func NewUpload(storage *storage.Service) *UploadHandlers {
	return &UploadHandlers{storage: storage}
}

// UploadRequest carries a base64 encoded file.
type UploadRequest struct {
	File     string `json:"file" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
}

// UploadResponse returns the public URL of a stored file.
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// Upload stores the decoded image and returns its URL.
func (h *UploadHandlers) Upload(c echo.Context) error {
	var req UploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	url, err := h.storage.SaveBase64(c.Request().Context(), req.File, req.FileName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UploadResponse{Success: true, URL: url})
}
