package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"porcula/internal/config"
	_ "porcula/internal/fb2"
	"porcula/internal/genremap"
	"porcula/internal/i18n"
	"porcula/internal/index"
)

const genreMapFileName = "genre-map.txt"

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:            "porcula",
		Usage:           i18n.T("full-text search over FB2 libraries", "полнотекстовый поиск по библиотеке FB2"),
		Version:         runtime.Version(),
		HideHelpCommand: true,
		OnUsageError:    usageErrorHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "index", Aliases: []string{"i"}, Usage: "index `DIR`, overrides config"},
			&cli.StringFlag{Name: "books", Aliases: []string{"b"}, Usage: "books `DIR`, overrides config"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			serverCommand(),
			indexCommand(),
			queryCommand(),
			facetCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", i18n.T("Program ended with error", "Программа завершилась с ошибкой"), err)
		os.Exit(1)
	}
}

// appContext holds everything a subcommand needs, built once from flags and
// config.Load so server/index/query/facet share identical setup.
type appContext struct {
	Cfg      *config.Config
	Log      *zap.Logger
	GenreMap *genremap.Map
	IndexDir string
	BooksDir string
	Debug    bool
}

func setupAppContext(cmd *cli.Command) (*appContext, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	log, err := cfg.Logging.BuildLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	indexDir := cfg.IndexDir
	if v := cmd.String("index"); v != "" {
		indexDir = v
	}
	booksDir := cfg.BooksDir
	if v := cmd.String("books"); v != "" {
		booksDir = v
	}

	gm := loadGenreMap(indexDir, log)

	return &appContext{
		Cfg:      cfg,
		Log:      log,
		GenreMap: gm,
		IndexDir: indexDir,
		BooksDir: booksDir,
		Debug:    cmd.Bool("debug"),
	}, nil
}

// loadGenreMap looks for genre-map.txt inside the index directory first,
// then in the working directory, falling back to an empty map rather than
// failing the whole command: a
// missing translation table degrades facet labels, it doesn't make the
// index unusable.
func loadGenreMap(indexDir string, log *zap.Logger) *genremap.Map {
	candidates := []string{
		filepath.Join(indexDir, genreMapFileName),
		genreMapFileName,
	}
	for _, path := range candidates {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()
		gm, err := genremap.Load(f)
		if err != nil {
			log.Warn("invalid genre map, using empty table", zap.String("path", path), zap.Error(err))
			break
		}
		return gm
	}
	return genremap.New()
}

func primaryLang(settings *config.IndexSettings) string {
	if len(settings.Langs) == 0 {
		return "ru"
	}
	return settings.Langs[0]
}

func openReader(app *appContext) (*index.Reader, *config.IndexSettings, error) {
	settings, err := config.LoadIndexSettings(app.IndexDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", i18n.T("invalid index settings", "неправильные настройки индекса"), err)
	}
	r, err := index.OpenReader(app.IndexDir, primaryLang(settings), app.GenreMap, app.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("%s '%s': %w", i18n.T("error opening index in", "ошибка открытия индекса в"), app.IndexDir, err)
	}
	return r, settings, nil
}
