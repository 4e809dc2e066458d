package main

import (
	"context"
	"net/http"

	"github.com/desertthunder/songx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON gateway until the command context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	handler, closeLibrary, err := r.gatewayHandler(!cmd.Bool("no-library"))
	if err != nil {
		return err
	}
	defer closeLibrary()

	return server.ListenAndServe(ctx, addr, handler, r.logger)
}

// gatewayHandler builds the router with logging and recovery around /health and the gateway.
func (r *Runner) gatewayHandler(withLibrary bool) (http.Handler, func(), error) {
	closeLibrary := func() {}

	var library server.SongLister
	if withLibrary {
		repo, db, err := r.openLibrary()
		if err != nil {
			return nil, nil, err
		}
		library = repo
		closeLibrary = func() { db.Close() }
	}

	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger), server.LoggingMiddleware(r.logger))
	registry := r.registry()
	server.Mount(router, server.NewGateway(registry, library, r.logger), registry.Names())
	return router, closeLibrary, nil
}
