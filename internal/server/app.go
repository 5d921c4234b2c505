// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/auisnexus/nexus/internal/config"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"codeberg.org/auisnexus/nexus/internal/services/auth"
	"codeberg.org/auisnexus/nexus/internal/services/events"
	"codeberg.org/auisnexus/nexus/internal/services/mail"
	"codeberg.org/auisnexus/nexus/internal/services/storage"
	"codeberg.org/auisnexus/nexus/internal/services/users"
	"codeberg.org/auisnexus/nexus/internal/token"
)

// App bundles the services behind the HTTP API.
type App struct {
	Config  *config.Config
	Repo    *repository.Repository
	Tokens  *token.Issuer
	Auth    *auth.Service
	Events  *events.Service
	Users   *users.Service
	Storage *storage.Service
}

// NewApp wires the services from the configuration.
func NewApp(cfg *config.Config, repo *repository.Repository, mailer mail.Sender) (*App, error) {
	store, err := storage.NewService(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	tokens := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	return &App{
		Config:  cfg,
		Repo:    repo,
		Tokens:  tokens,
		Auth:    auth.NewService(repo, mailer, tokens, cfg),
		Events:  events.NewService(repo),
		Users:   users.NewService(repo),
		Storage: store,
	}, nil
}
