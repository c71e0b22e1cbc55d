package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/ultiflow/ultiflow/internal/config"
	"github.com/ultiflow/ultiflow/internal/gitsource"
	"github.com/ultiflow/ultiflow/internal/importer"
	"github.com/ultiflow/ultiflow/internal/learning"
	"github.com/ultiflow/ultiflow/internal/remote"
	"github.com/ultiflow/ultiflow/internal/storage"
	"github.com/ultiflow/ultiflow/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("ultiflow", pflag.ExitOnError)
	config.Flags(flags)
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	notes, err := db.LoadNotes()
	if err != nil {
		log.Fatalf("Failed to load knowledge base: %v", err)
	}

	// When sync is configured and the server holds a snapshot, it wins
	// over the local copy; its non-learning payloads are carried along
	// untouched so later pushes keep them.
	var syncClient *remote.Client
	var extras remote.Snapshot
	if cfg.SyncURL != "" {
		syncClient = remote.NewClient(cfg.SyncURL)
		snap, err := syncClient.Load(context.Background(), cfg.SyncEmail)
		if err != nil {
			slog.Warn("could not reach sync service, continuing with local data", "error", err)
		} else if snap != nil {
			notes = snap.KnowledgeBase
			extras = *snap
			extras.KnowledgeBase = nil
			slog.Info("loaded snapshot from sync service", "email", cfg.SyncEmail, "notes", len(notes))
		}
	}

	kb := learning.NewKnowledgeBase(notes)
	slog.Info("knowledge base ready", "notes", len(kb.Notes()), "cards", kb.TotalCards(), "due", kb.CountDue(kb.Today()))

	if cfg.ImportGit != "" {
		local, err := gitsource.Mirror(cfg.CacheDir, cfg.ImportGit)
		if err != nil {
			log.Fatalf("Failed to mirror deck repository: %v", err)
		}
		if _, err := importer.ImportDir(kb, local); err != nil {
			log.Fatalf("Failed to import mirrored decks: %v", err)
		}
	}
	if cfg.Import != "" {
		if _, err := importer.ImportDir(kb, cfg.Import); err != nil {
			log.Fatalf("Failed to import decks: %v", err)
		}
	}

	var syncer web.Syncer
	if syncClient != nil {
		syncer = syncClient
	}
	server := web.NewServer(kb, db, syncer, cfg.SyncEmail, extras)

	slog.Info("listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
