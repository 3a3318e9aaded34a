package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"porcula/internal/i18n"
	"porcula/internal/index"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:         "query",
		Usage:        i18n.T("run one search query and print JSON results", "выполнить поиск и вывести результаты в JSON"),
		ArgsUsage:    "QUERY",
		OnUsageError: usageErrorHandler,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "hits", Value: 10, Usage: "maximum number of results"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "skip this many results"},
			&cli.StringFlag{Name: "order", Value: string(index.OrderDefault), Usage: "result order: default, title, author, translator, sequence, random"},
		},
		Action: runQuery,
	}
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	app, err := setupAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%s", i18n.T("missing QUERY argument", "отсутствует аргумент QUERY"))
	}
	query := cmd.Args().First()

	reader, _, err := openReader(app)
	if err != nil {
		return err
	}
	defer reader.Close()

	hits, total, err := reader.Search(index.SearchOptions{
		Query:  query,
		Order:  index.Order(cmd.String("order")),
		Limit:  cmd.Int("hits"),
		Offset: cmd.Int("offset"),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("query error", "ошибка запроса"), err)
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(struct {
		Total uint64           `json:"total"`
		Hits  []index.BookHit  `json:"hits"`
	}{Total: total, Hits: hits})
}
