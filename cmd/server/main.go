package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/flightcompare/internal/api"
	"github.com/banshee-data/flightcompare/internal/cache"
	"github.com/banshee-data/flightcompare/internal/config"
	"github.com/banshee-data/flightcompare/internal/db"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a .json or .yaml server config")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	devMode    = flag.Bool("dev", false, "Run in dev mode (log to stderr as well as the log file)")
)

// janitorInterval is how often stale uploads are purged.
const janitorInterval = 10 * time.Minute

func loadConfig() (*config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = listen
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logCloser, err := monitoring.SetupFileOutput(monitoring.LogFileConfig{
		Filename:   cfg.GetLogFile(),
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
		Compress:   true,
		Stderr:     *devMode,
	})
	if err != nil {
		log.Fatalf("failed to set up log file: %v", err)
	}
	defer logCloser.Close()

	log.Printf("flightcompare %s starting", version.String())

	for _, dir := range []string{cfg.GetUploadDir(), cfg.GetSamplesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	responses := cache.New(cfg.GetCacheTTL(), uint64(cfg.GetCacheCapacity()))
	server := api.NewServer(cfg, database, responses)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// expire cached responses in the background
	wg.Add(1)
	go func() {
		defer wg.Done()
		go func() {
			<-ctx.Done()
			responses.Stop()
		}()
		responses.Start()
		log.Print("cache routine terminated")
	}()

	// purge stale uploads
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Stager().RunJanitor(ctx, cfg.GetUploadRetention(), janitorInterval)
		log.Print("upload janitor terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := server.ServeMux()
		if err := database.AttachAdminRoutes(mux); err != nil {
			log.Printf("admin routes unavailable: %v", err)
		}

		httpServer := &http.Server{
			Addr:              cfg.GetListen(),
			Handler:           server.Handler(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Printf("listening on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
