package litepool

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jirevwe/litepool/accesslog"
	"github.com/jirevwe/litepool/accesslog/sqlite"
	"golang.org/x/sync/errgroup"
)

// Run serves cfg until ctx is done, then waits for every accepted connection
// to be answered before returning.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var store accesslog.Store = accesslog.Nop{}
	if cfg.AccessLog.DBPath != "" {
		s, err := sqlite.NewSqlite(cfg.AccessLog.DBPath, logger)
		if err != nil {
			return fmt.Errorf("failed to open access log: %w", err)
		}
		store = s
	}
	defer store.Close()

	srv, err := NewServer(cfg, WithLogger(logger), WithAccessLog(store))
	if err != nil {
		return err
	}
	// drains in-flight connections before the access log is closed
	defer srv.Close()

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx, l)
	})

	if cfg.StatsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.StatsInterval)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					n, err := store.Count(gctx)
					if err != nil {
						logger.Error(err.Error(), "source", "stats")
					}
					logger.Info("server stats", "served", srv.Served(), "pending", srv.Pending(), "logged", n)
				}
			}
		})
	}

	return g.Wait()
}
