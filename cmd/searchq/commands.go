package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lk2023060901/property-research-backend/internal/conf"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	wsdata "github.com/lk2023060901/property-research-backend/internal/websearch/data"
	"github.com/lk2023060901/property-research-backend/internal/websearch/provider"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "searchq",
		Usage: "Compile and run property research search patterns",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: "configs/config.yaml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			compileCommand(),
			runCommand(),
		},
	}
}

func patternFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Search provider (google or serpapi)",
			Value: string(types.ProviderGoogle),
		},
		&cli.StringFlag{
			Name:     "pattern",
			Usage:    "Pattern JSON file, - for stdin",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "Override the pattern page",
		},
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Print the provider parameters for a pattern",
		Flags: patternFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, pattern, err := setup(c)
			if err != nil {
				return err
			}

			req, err := uc.Compile(ctx, c.String("provider"), pattern)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, req.Values().Encode())
			return nil
		},
	}
}

func runCommand() *cli.Command {
	flags := append(patternFlags(), &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the raw response as JSON",
	})

	return &cli.Command{
		Name:  "run",
		Usage: "Execute a pattern and print the results",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, pattern, err := setup(c)
			if err != nil {
				return err
			}

			resp, err := uc.Search(ctx, c.String("provider"), pattern)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if c.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printResults(w, resp)
			return nil
		},
	}
}

// setup loads the config and pattern and builds a use case with an
// in-memory result cache and no pattern storage.
func setup(c *cli.Command) (*biz.SearchUseCase, *types.SearchPattern, error) {
	config, err := conf.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if c.Bool("debug") {
		level = "debug"
	}
	log, err := logger.NewWithOptions(
		logger.WithLevel(level),
		logger.WithFormat("console"),
		logger.WithOutput("console"),
	)
	if err != nil {
		return nil, nil, err
	}
	logger.SetGlobal(log)

	pattern, err := readPattern(c.String("pattern"))
	if err != nil {
		return nil, nil, err
	}
	if page := c.Int("page"); page > 0 {
		p := pattern.WithPage(page)
		pattern = &p
	}

	providers, err := provider.NewFactory().CreateAll(config.Search.Providers()...)
	if err != nil {
		return nil, nil, err
	}

	uc := biz.NewSearchUseCase(
		config.Search.Providers(),
		providers,
		nil,
		wsdata.NewResultCache(nil, config.Search.CacheSize, config.Search.CacheTTL),
		biz.Options{MaxConcurrency: config.Search.MaxConcurrency},
		log,
	)
	return uc, pattern, nil
}

func readPattern(path string) (*types.SearchPattern, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading pattern: %w", err)
	}

	var p types.SearchPattern
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing pattern: %w", err)
	}
	return &p, nil
}

func printResults(w io.Writer, resp *types.SearchResponse) {
	fmt.Fprintf(w, "%s [%s] page %d, %d results", resp.Query, resp.Provider, resp.Page, len(resp.Results))
	if resp.TotalCount > 0 {
		fmt.Fprintf(w, " of about %d", resp.TotalCount)
	}
	fmt.Fprintln(w)

	for _, r := range resp.Results {
		fmt.Fprintf(w, "\n%d. %s\n   %s\n", r.Position, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", r.Snippet)
		}
	}
}
