package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/ultiflow/ultiflow/internal/config"
	"github.com/ultiflow/ultiflow/internal/syncserver"
)

func main() {
	listen := pflag.String("listen", ":3001", "HTTP listen address")
	databaseURL := pflag.String("database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	dsn := *databaseURL
	if dsn == "" {
		dsn = config.Lookup("DATABASE_URL", "")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	store, err := syncserver.NewPostgresStore(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	slog.Info("sync server listening", "addr", *listen)
	if err := http.ListenAndServe(*listen, syncserver.NewRouter(store)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
