// Package main runs the data processor: a PocketBase app serving the process
// API and the static upload UI.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"

	"github.com/harvestingmedia/dataprocessor/api"
	"github.com/harvestingmedia/dataprocessor/config"
	"github.com/harvestingmedia/dataprocessor/contacts"
	"github.com/harvestingmedia/dataprocessor/donation"
	"github.com/harvestingmedia/dataprocessor/google"
	"github.com/harvestingmedia/dataprocessor/hours"
	"github.com/harvestingmedia/dataprocessor/logging"
	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/ratelimit"
	"github.com/harvestingmedia/dataprocessor/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("")
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	if cfg.File != "" {
		slog.Info("Loaded config file", "path", cfg.File)
	}

	registry, err := buildRegistry(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to set up processes", "error", err)
		os.Exit(1)
	}

	app := pocketbase.New()

	var publicDir string
	app.RootCmd.PersistentFlags().StringVar(
		&publicDir,
		"publicDir",
		defaultPublicDir(),
		"the directory to serve static files",
	)

	var indexFallback bool
	app.RootCmd.PersistentFlags().BoolVar(
		&indexFallback,
		"indexFallback",
		true,
		"fallback the request to index.html on missing static path",
	)

	service := api.New(registry)
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		slog.Info("Registering process routes", "processes", registry.Names())
		service.Register(e)
		return e.Next()
	})

	// Register static file serving (with lowest priority)
	app.OnServe().Bind(&hook.Handler[*core.ServeEvent]{
		Func: func(e *core.ServeEvent) error {
			if !e.Router.HasRoute(http.MethodGet, "/{path...}") {
				e.Router.GET("/{path...}", apis.Static(os.DirFS(publicDir), indexFallback))
			}
			return e.Next()
		},
		Priority: 999,
	})

	if err := app.Start(); err != nil {
		slog.Error("Failed to start application", "error", err)
		os.Exit(1)
	}
}

// buildRegistry wires every process to its destination. Without Google
// Sheets the output is only logged.
func buildRegistry(ctx context.Context, cfg config.Config) (*pipeline.Registry, error) {
	srv, err := google.NewSheetsClient(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}

	var sink pipeline.Sink = sheets.LogSink{}
	if srv != nil {
		sink = sheets.NewSink(sheets.NewRealWriter(srv), ratelimit.New(cfg.RateLimit))
	} else {
		slog.Warn("Google Sheets disabled, process output will not be saved")
	}

	hoursCfg := cfg.Hours
	ids := cfg.Spreadsheets
	return pipeline.NewRegistry(
		donation.NewProcessor(hours.NewSource(&hoursCfg), sink, pipeline.Destination{SpreadsheetID: ids.Donation}),
		contacts.NewCertoMarket(sink, ids.CertoMarket),
		contacts.NewCertoMarketVisits(sink, ids.CertoMarket),
		contacts.NewKeyFoodValleyStream(sink, ids.KeyFood),
	)
}

// the default pb_public dir location is relative to the executable
func defaultPublicDir() string {
	if strings.HasPrefix(os.Args[0], os.TempDir()) {
		// most likely ran with go run
		return "./pb_public"
	}

	return filepath.Join(filepath.Dir(os.Args[0]), "pb_public")
}
