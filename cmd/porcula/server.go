package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"porcula/internal/httpapi"
	"porcula/internal/i18n"
)

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:         "server",
		Usage:        i18n.T("start the HTTP search server", "запустить HTTP-сервер поиска"),
		OnUsageError: usageErrorHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Value: "", Usage: "listen `ADDR`, overrides config"},
		},
		Action: runServer,
	}
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	app, err := setupAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	reader, settings, err := openReader(app)
	if err != nil {
		app.Log.Error("cannot open index", zap.Error(err))
		return err
	}
	defer reader.Close()

	listenAddr := app.Cfg.ListenAddr
	if v := cmd.String("listen"); v != "" {
		listenAddr = v
	}

	app.Log.Info("starting server",
		zap.String("index", app.IndexDir),
		zap.String("books", app.BooksDir),
		zap.Strings("langs", settings.Langs),
		zap.String("listen", listenAddr))

	srv := &httpapi.Server{
		Reader:   reader,
		BooksDir: app.BooksDir,
		BaseURL:  app.Cfg.BaseURL,
		Debug:    app.Debug,
		Log:      app.Log,
	}
	httpSrv := &http.Server{Addr: listenAddr, Handler: srv.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		app.Log.Info("shutting down")
		return httpSrv.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}
}
