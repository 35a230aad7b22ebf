// Command callbridge runs the HTTP bridge daemon: the default operation set
// served to a webview frontend over POST /call and an SSE event stream.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/callbridge/callbridge"
	"github.com/callbridge/callbridge/history"
	"github.com/callbridge/callbridge/internal/config"
	"github.com/callbridge/callbridge/logging"
	"github.com/callbridge/callbridge/transport/httpbridge"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewSlogLogger(logging.ParseLogLevel(cfg.Log.Level), cfg.Log.Format, false)

	var store history.Store
	if cfg.History.Path != "" {
		sqlStore, err := history.NewSQLiteStore(cfg.History.Path, cfg.History.KeepRecent)
		if err != nil {
			log.Fatalf("history: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The operations closure is late-bound so the bridge can advertise the
	// registry populated below.
	var app *callbridge.Bridge
	session := httpbridge.New(func(o *httpbridge.Options) {
		o.Logger = logger
		o.Operations = func() []string {
			if app == nil {
				return nil
			}
			return app.Engine().Operations()
		}
	})

	app = callbridge.New(session, func(o *callbridge.Options) {
		o.Logger = logger
		o.History = store
	}).RegisterDefaults()

	go func() {
		if err := session.Serve(ctx, cfg.Listen); err != nil && err != context.Canceled {
			logger.Error("httpbridge.serve.failed", "error", err.Error())
		}
	}()

	// Blocks until exit_session is called or the HTTP bridge shuts down.
	if err := app.Start(); err != nil {
		log.Fatalf("engine: %v", err)
	}
}
