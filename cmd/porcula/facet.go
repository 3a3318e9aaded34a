package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"porcula/internal/i18n"
)

func facetCommand() *cli.Command {
	return &cli.Command{
		Name:         "facet",
		Usage:        i18n.T("list facet values under a path", "показать значения фасета по пути"),
		ArgsUsage:    "PATH",
		OnUsageError: usageErrorHandler,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "hits", Value: 10, Usage: "maximum number of values"},
			&cli.StringFlag{Name: "query", Usage: "restrict to documents matching this query"},
		},
		Action: runFacet,
	}
}

func runFacet(ctx context.Context, cmd *cli.Command) error {
	app, err := setupAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%s", i18n.T("missing PATH argument", "отсутствует аргумент PATH"))
	}
	path := cmd.Args().First()

	reader, _, err := openReader(app)
	if err != nil {
		return err
	}
	defer reader.Close()

	hits := cmd.Int("hits")
	entries, err := reader.GetFacet(path, cmd.String("query"), &hits, app.Debug)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("query error", "ошибка запроса"), err)
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(entries)
}
