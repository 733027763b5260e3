package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/orrery/internal"
	pkgconfig "github.com/starford/orrery/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file (.yaml or .toml)",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
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
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func layout(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if s := cmd.String("strategy"); s != "" {
		cfg.Layout.Strategy = s
		if err := cfg.Layout.Validate(); err != nil {
			return fmt.Errorf("invalid strategy: %w", err)
		}
	}

	out := os.Stdout
	if p := cmd.String("out"); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return internal.RunLayout(ctx, internal.WithConfig(cfg), internal.WithOutput(out))
}

func main() {
	cmd := &cli.Command{
		Name:    "orrery",
		Usage:   "Fly through a repository drawn as a 3D galaxy",
		Version: version,
		Action:  serve,
		Flags:   []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the simulation host with the HTTP API and event stream",
				Action: serve,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "mcp",
				Usage:  "Serve galaxy tools to MCP clients over stdio",
				Action: mcp,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "layout",
				Usage:  "Compute the layout once and print it as JSON",
				Action: layout,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Override the layout strategy (spiral or force)",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the layout to a file instead of stdout",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
