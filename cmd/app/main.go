package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fele-systems/memendex/internal"
	pkgconfig "github.com/fele-systems/memendex/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "memendex",
		Usage:  "Personal meme index with uploads, bookmarks, notes, hierarchical tags, and fuzzy search",
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio instead of the HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := internal.NewDefaultConfig()
					if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
						return fmt.Errorf("failed to parse config: %w", err)
					}
					return internal.RunMCP(ctx, internal.WithConfig(cfg))
				},
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
