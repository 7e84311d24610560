// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the rdweb
// project. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command can be used for the database initialization actions
// and the "token" sub-command issues bearer tokens for development.
//
//	./rdweb [-c /path/of/main/config.yaml]           # start web server
//	./rdweb db init-dev [-c /path/of/main/config.yaml]
//	./rdweb db init-prod [-c /path/of/main/config.yaml]
//	./rdweb token --sub <id> --role <role> [--ttl 1h]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/momeni/rentdispatch/pkg/adapter/config"
	"github.com/momeni/rentdispatch/pkg/adapter/config/cfg1"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/routes"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// Version of the rdweb binary, which may be set by the linker.
var Version = "1.0.0"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "rdweb",
	Short: "Vehicle rental booking dispatch server",
	Long: `Vehicle rental booking dispatch server which assigns the nearest
online partner to each booking and relays the booking-confirmed and
partner-gps events to the connected clients as server-sent events.
Concurrent assignments of the same booking are serialized by locks
in a shared Redis server, so several instances may run side by side.`,
	RunE:         startWebServer,
	SilenceUsage: true,
}

// loadConfig loads the configuration file and installs the default
// slog logger as configured by it.
func loadConfig() (*cfg1.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	h, err := c.Logging.NewHandler(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating log handler: %w", err)
	}
	slog.SetDefault(slog.New(h))
	return c, nil
}

func startWebServer(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	shutdownTracer, err := c.Tracing.Init(ctx, Version)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Warn(ctx, "failed to flush spans", log.Err("error", err))
		}
	}()
	p, err := c.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	rdb, err := c.Redis.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	bus, closeBus, err := c.Bus.NewBus(rdb)
	if err != nil {
		return fmt.Errorf("creating events bus: %w", err)
	}
	defer closeBus()

	gin.SetReleaseMode()
	var e *gin.Engine = c.Gin.NewEngine()
	if err = routes.Register(e, p, rdb, bus, c); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	return serve(ctx, *c.Gin.Addr, e)
}

// serve runs an http server until ctx is cancelled and then shuts it
// down gracefully. Event streams never end by themselves, so requests
// contexts are cancelled as soon as the shutdown begins.
func serve(ctx context.Context, addr string, h http.Handler) error {
	reqCtx, cancelReqs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelReqs()
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return reqCtx
		},
	}
	srv.RegisterOnShutdown(cancelReqs)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info(ctx, "web server is started", slog.String("addr", addr))
	select {
	case err := <-errCh:
		return fmt.Errorf("running web server: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down web server")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code is
// non-zero if the command fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		// the default path should usually be in the /etc directory
		cfgPath = "configs/sample-config.yaml"
	}
}
