// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alvinbaena/breach-checker/internal/api"
	"github.com/alvinbaena/breach-checker/internal/limiter"
	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/gin-gonic/gin"
	"github.com/likexian/selfca"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the breach check page and API",
		Long: "Serve the breach check page and API. Every setting is read from the environment " +
			"(HIBP_API_KEY is required), the flags below take precedence over it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCommand(cmd)
		},
	}
)

func init() {
	serveCmd.Flags().Bool("self-tls", false,
		"If the server should use a self-signed certificate when starting. The certificate is renewed on each server restart")
	serveCmd.Flags().String("tls-cert", "", "Path to the PEM encoded TLS certificate to be used by the server")
	serveCmd.Flags().String("tls-key", "", "Path to the PEM encoded TLS private key to be used by the server")
	serveCmd.Flags().Bool("plain-http", false, "Serve plain HTTP, for running behind a TLS terminating proxy")
	serveCmd.Flags().StringP("port", "p", "3100", "Port to be used by the server")

	rootCmd.AddCommand(serveCmd)
}

func bindServeFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"SELF_TLS":   "self-tls",
		"TLS_CERT":   "tls-cert",
		"TLS_KEY":    "tls-key",
		"PLAIN_HTTP": "plain-http",
		"PORT":       "port",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func serveCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	v := api.NewViper()
	if err := bindServeFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := api.LoadConfig(v)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	lim, closeStore, err := newLimiter(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	router := api.NewRouter(hibp.NewClient(cfg.HIBP()), lim, cfg.TrustedProxies...)

	srvAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              srvAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			log.Info().Msgf("starting TLS Server on address: %s", srvAddr)
			// service connections with tls certs
			if err := srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("error starting server")
			}
		} else if cfg.SelfTLS {
			log.Info().Msgf("starting TLS Server on address: %s", srvAddr)
			log.Warn().Msgf("using auto self-signed certificate for TLS. This is not recommended for production. Please consider using your own certificates.")
			pair, err := selfSignedPair()
			if err != nil {
				log.Fatal().Err(err).Msg("error using auto self-signed certificate")
			}

			srv.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{pair},
				MinVersion:   tls.VersionTLS12,
			}

			// service connections with tls config, no need to pass files
			if err = srv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("error starting server")
			}
		} else {
			log.Warn().Msgf("starting plain HTTP Server on address: %s. TLS must be terminated before reaching it", srvAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("error starting server")
			}
		}
	}()

	gracefulShutdown(srv)
	return nil
}

// newLimiter picks the rate limit store, redis when configured so every instance shares the counters.
func newLimiter(ctx context.Context, cfg api.Config) (*limiter.Limiter, func(), error) {
	if cfg.RedisURL != "" {
		store, err := limiter.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err = store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("error connecting to redis: %w", err)
		}

		log.Info().Msg("using redis for rate limiting")
		return limiter.New(store, cfg.RateLimitWindow, cfg.RateLimitMax), func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis connection")
			}
		}, nil
	}

	store, err := limiter.NewMemoryStore(0)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().Msg("using in memory rate limiting")
	return limiter.New(store, cfg.RateLimitWindow, cfg.RateLimitMax), store.Close, nil
}

func selfSignedPair() (tls.Certificate, error) {
	caConfig := selfca.Certificate{
		IsCA:      true,
		KeySize:   2048,
		NotBefore: time.Now(),
		// 30 day self-signed cert.
		NotAfter: time.Now().Add(time.Duration(30*24) * time.Hour),
	}

	// generating the certificate
	certificate, key, err := selfca.GenerateCertificate(caConfig)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("error generating auto self-signed certificate: %w", err)
	}

	return tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	)
}

func gracefulShutdown(srv *http.Server) {
	// Wait for interrupt signal to gracefully shut down the server with
	// a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall. SIGKILL but can't be a catch, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server Shutdown.")
	}
	log.Info().Msg("server exiting...")
}
