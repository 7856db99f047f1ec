package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emssig/internal/api"
	"emssig/internal/config"
	"emssig/internal/keystore"
	"emssig/internal/logging"
	"emssig/internal/runtime"
	"emssig/signer"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to service config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.LogFormat, *debug, os.Stdout)

	permWarning, err := runtime.CheckCredentialsFilePermissions(cfg.Auth.CredentialsFile)
	if err != nil {
		logger.Error("startup failed: credentials file check", "error", err)
		os.Exit(1)
	}
	if permWarning != "" {
		logger.Warn("credentials file permissions warning", "warning", permWarning)
	}

	store, err := keystore.LoadFile(cfg.Auth.CredentialsFile)
	if err != nil {
		logger.Error("startup failed: credentials load", "error", err)
		os.Exit(1)
	}

	verifier := signer.NewVerifier(signer.ServerConfig{
		Party: signer.Party{
			Region:      cfg.Auth.Region,
			Service:     cfg.Auth.Service,
			RequestType: cfg.Auth.RequestType,
		},
		KeyLookup:      store.Lookup,
		VendorPrefix:   cfg.Auth.VendorPrefix,
		AuthHeaderName: cfg.Auth.AuthHeaderName,
		DateHeaderName: cfg.Auth.DateHeaderName,
	})

	readyCheck := func() error {
		if _, statErr := os.Stat(cfg.Auth.CredentialsFile); statErr != nil {
			return statErr
		}
		return nil
	}

	svc := &api.Service{
		Verifier:          verifier,
		Keys:              store,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		PathLive:          cfg.Health.PathLive,
		PathReady:         cfg.Health.PathReady,
		ReadyCheck:        readyCheck,
		Now:               time.Now,
		Logger:            logger,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}
	if !cfg.Health.Enabled {
		svc.PathLive = ""
		svc.PathReady = ""
	}

	handler := withServerHeader(svc.Handler())

	srv, err := runtime.New(cfg, handler, logger)
	if err != nil {
		logger.Error("startup failed: server init", "error", err)
		os.Exit(1)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			logger.Error("graceful shutdown failed", "error", shutdownErr)
		}
	}()

	logger.Info("server starting",
		"addr", cfg.Server.ListenAddress,
		"region", cfg.Auth.Region,
		"service", cfg.Auth.Service,
		"vendor_prefix", cfg.Auth.VendorPrefix,
		"tls_enabled", cfg.TLS.Enabled,
		"tls_mode", cfg.TLS.Mode,
	)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func withServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "emsauthd")
		next.ServeHTTP(w, r)
	})
}
