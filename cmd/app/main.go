// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"codeberg.org/auisnexus/nexus/internal/config"
	"codeberg.org/auisnexus/nexus/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:   "nexus",
		Usage:  "AUIS Nexus event and membership API",
		Flags:  config.Flags(),
		Action: server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the API server",
				Action: server.Run,
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "Roll back the most recent migration"},
				},
				Action: server.Migrate,
			},
			{
				Name:  "create-admin",
				Usage: "Create a verified admin account or promote an existing one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Admin email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Admin password", Required: true},
					&cli.StringFlag{Name: "first-name", Usage: "First name", Value: "Nexus"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name", Value: "Admin"},
				},
				Action: server.CreateAdmin,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
