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

	"github.com/starford/cardgrid/internal"
	pkgconfig "github.com/starford/cardgrid/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// once returns the action for a one-shot subcommand. The input is the first
// argument, or stdin when the argument is "-" or missing.
func once(kind string, stdin io.Reader, stdout io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		input := cmd.Args().First()
		if input == "" || input == "-" {
			data, err := readInput(stdin)
			if err != nil {
				return err
			}
			input = data
		}

		return internal.RunOnce(ctx, stdout, kind, input,
			internal.WithConfig(cfg),
			internal.WithLogOutput(os.Stderr))
	}
}

func readInput(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr))
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "cardgrid",
		Usage:  "Turn JSON values, web pages and product analyses into a grid of flip cards with ratings and feedback",
		Action: serve,
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
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
			},
			{
				Name:      "project",
				Usage:     "Project a JSON value into cards",
				ArgsUsage: "[json|-]",
				Action:    once(internal.InputJSON, stdin, stdout),
			},
			{
				Name:      "summarize",
				Usage:     "Fetch a page and summarize it into cards",
				ArgsUsage: "<url>",
				Action:    once(internal.InputPage, stdin, stdout),
			},
			{
				Name:      "analyze",
				Usage:     "Submit a URL to the analysis API",
				ArgsUsage: "<url>",
				Action:    once(internal.InputAnalysis, stdin, stdout),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
