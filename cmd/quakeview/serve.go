package main

import (
	"context"
	"errors"
	"net/http"

	httpadapter "github.com/couchcryptid/quake-explorer/internal/adapter/http"
)

type serveCmd struct {
	Addr string `help:"Listen address. Overrides HTTP_ADDR."`
}

func (c *serveCmd) Run(e *env) error {
	if c.Addr != "" {
		e.cfg.HTTPAddr = c.Addr
	}
	logger := e.logger
	svc := e.service()

	// Views retry the load and answer 503 until the file parses.
	if t, err := svc.Table(e.ctx); err != nil {
		logger.Error("initial load failed", "path", e.cfg.DataFile, "error", err)
	} else {
		logger.Info("table loaded", "path", t.Source, "rows", len(t.Events), "dropped", t.Report.DroppedTotal())
	}

	srv := httpadapter.NewServer(e.cfg.HTTPAddr, svc, logger, e.metrics)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", e.cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-e.ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
