package main

import (
	"context"
	"fmt"
	"sync/atomic"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"porcula/internal/config"
	"porcula/internal/i18n"
	"porcula/internal/index"
	"porcula/internal/pipeline"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:         "index",
		Usage:        i18n.T("build or update the search index", "построить или обновить индекс"),
		OnUsageError: usageErrorHandler,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "delta", Usage: "only index files not already present in the index"},
			&cli.StringSliceFlag{Name: "lang", Usage: "accept only these language codes (repeatable, \"any\" accepts all); default from index settings"},
			&cli.IntFlag{Name: "threads", Value: config.DefaultReadThreads, Usage: "parser worker pool size"},
			&cli.IntFlag{Name: "batch", Value: config.DefaultBatchBytes, Usage: "writer batch size, in bytes of parsed_size"},
			&cli.BoolFlag{Name: "no-cover", Usage: "skip cover thumbnail extraction"},
			&cli.BoolFlag{Name: "no-annotation", Usage: "skip annotation extraction"},
			&cli.BoolFlag{Name: "no-body", Usage: "skip body text extraction"},
			&cli.BoolFlag{Name: "xbody", Usage: "also index a stemmed copy of the body text"},
		},
		Action: runIndex,
	}
}

func runIndex(ctx context.Context, cmd *cli.Command) error {
	app, err := setupAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	settings, err := config.LoadIndexSettings(app.IndexDir)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("invalid index settings", "неправильные настройки индекса"), err)
	}
	if langs := cmd.StringSlice("lang"); len(langs) > 0 {
		settings.Langs = langs
	}
	settings.BooksDir = app.BooksDir
	if err := settings.Save(app.IndexDir); err != nil {
		return fmt.Errorf("save index settings: %w", err)
	}

	delta := cmd.Bool("delta")
	var deltaReader *index.Reader
	if delta {
		deltaReader, err = index.OpenReader(app.IndexDir, primaryLang(settings), app.GenreMap, app.Log)
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cannot open index for delta read", "не удалось открыть индекс для дельта-чтения"), err)
		}
		defer deltaReader.Close()
	}

	w, err := index.OpenWriter(app.IndexDir, primaryLang(settings), app.GenreMap, cmd.Int("batch"), app.Log)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("error opening index for write", "ошибка открытия индекса для записи"), err)
	}

	canceled := &atomic.Bool{}
	go func() {
		<-ctx.Done()
		app.Log.Warn("cancellation requested, finishing current work and flushing")
		canceled.Store(true)
	}()

	opts := pipeline.Options{
		BooksDir:      app.BooksDir,
		Delta:         delta,
		AcceptLangs:   settings.AcceptSet(),
		ReadThreads:   cmd.Int("threads"),
		ReadQueueSize: config.DefaultReadQueue,
		Cover:         !cmd.Bool("no-cover"),
		Annotation:    !cmd.Bool("no-annotation"),
		Body:          !cmd.Bool("no-body"),
		WantXBody:     cmd.Bool("xbody"),
		DeltaReader:   deltaReader,
	}

	stats, runErr := pipeline.Run(w, opts, canceled, app.Log)

	if err := w.Close(); err != nil {
		app.Log.Error("error closing index", zap.Error(err))
	}

	if stats != nil {
		app.Log.Info("indexing finished",
			zap.Int("archives_seen", stats.ArchivesSeen),
			zap.Int("archives_failed", stats.ArchivesFailed),
			zap.Int("books_indexed", stats.BooksIndexed),
			zap.Int("books_skipped", stats.BooksSkipped),
			zap.Int("books_failed", stats.BooksFailed),
			zap.Int("warnings", stats.Warnings),
			zap.Bool("canceled", stats.Canceled))
	}
	if runErr != nil {
		return fmt.Errorf("indexing: %w", runErr)
	}
	return nil
}
