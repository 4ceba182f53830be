package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/omnibar/internal"
	pkgconfig "github.com/starford/omnibar/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		configPath = ""
	}
	return cfg, configPath, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(path),
		internal.WithVersion(version),
	}, nil
}

// resolve never fails: a broken config file falls back to the defaults.
func resolve(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		slog.Warn("using default search settings", slog.String("error", err.Error()))
		cfg = internal.NewDefaultConfig()
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, cfg.Search.Resolver().Resolve(strings.Join(cmd.Args().Slice(), " ")))
	return err
}

func open(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Open(ctx, os.Stdout, strings.Join(cmd.Args().Slice(), " "), opts...)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "omnibar",
		Writer:  w,
		Usage:   "Address-bar resolver with a headless browser shell, visit journal and HTTP/MCP surfaces",
		Version: version,
		Action:  serve,
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
		Commands: []*cli.Command{
			// Free text like "-5 celsius in f" is input, not flags.
			{
				Name:            "resolve",
				Usage:           "Print the URL address-bar text resolves to",
				ArgsUsage:       "<text>",
				SkipFlagParsing: true,
				Action:          resolve,
			},
			{
				Name:      "open",
				Usage:     "Resolve text, load it once and print the final URL and title",
				ArgsUsage: "[text]",
				Action:    open,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live events and metrics",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: mcp,
			},
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
