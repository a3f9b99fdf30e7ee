// Package main is the entry point for assetd, the asset-serving HTTP
// service. It loads and validates settings, reads the released project
// version from the manifest, and serves until the listener fails.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mmr-tortoise/shipit/internal/manifest"
	"github.com/mmr-tortoise/shipit/internal/server"
)

func main() {
	settingsPath := flag.String("settings", "settings.jsonc", "path to the settings file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	settings, err := server.LoadSettings(*settingsPath)
	if err != nil {
		logger.Error("invalid settings", "error", err)
		os.Exit(1)
	}

	version, err := manifest.ReadProjectVersion(settings.ProjectManifest)
	if err != nil {
		logger.Error("failed to read project version",
			"manifest", settings.ProjectManifest, "error", err)
		os.Exit(1)
	}

	srv := server.New(settings, version, logger)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
