package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scidsg/hushline/internal/api"
	"github.com/scidsg/hushline/internal/config"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/db"
	"github.com/scidsg/hushline/internal/logging"
	"github.com/scidsg/hushline/internal/mailer"
	"github.com/scidsg/hushline/internal/metrics"
	"github.com/scidsg/hushline/internal/proton"
	"github.com/scidsg/hushline/internal/web"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag || cfg.RunMigrations {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid encryption key")
	}
	cipher, err := crypto.NewFieldCipher(key)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create field cipher")
	}

	tlsConfig, err := cfg.ServerTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure TLS")
	}

	pages, err := web.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load templates")
	}

	defaultSMTP := cfg.DefaultSMTP()
	if !defaultSMTP.Complete() {
		logger.Warn().Msg("no default SMTP relay configured, only custom SMTP forwarding will work")
	}

	services := core.NewServices(core.Deps{
		DB:          pool,
		Cipher:      cipher,
		Sender:      mailer.NewSMTPSender(),
		Keys:        proton.NewClient(cfg.ProtonKeyServerURL),
		SecretKey:   cfg.SecretKey,
		SessionTTL:  cfg.SessionTTL,
		DefaultSMTP: defaultSMTP,
	})

	srv := api.NewServer(logger, pool, services, pages, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		TLSConfig:    tlsConfig,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	servers := []*http.Server{httpServer}
	if cfg.MetricsListenAddr != "" {
		servers = append(servers, metrics.NewServer(cfg.MetricsListenAddr))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			logger.Info().Str("addr", s.Addr).Bool("tls", s.TLSConfig != nil).Msg("starting server")
			var err error
			if s.TLSConfig != nil {
				err = s.ListenAndServeTLS("", "")
			} else {
				err = s.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
