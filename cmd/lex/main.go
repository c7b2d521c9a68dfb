package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/lex/internal/block"
	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/logging"
	"github.com/g5becks/lex/internal/parser"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

var (
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	version = "dev"
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	commit = "unknown"
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	buildTime = "unknown"
)

func main() {
	if err := run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return newRootCommand().Run(context.Background(), args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "lex",
		Usage:   "Parse, check and index documents written in the lex markup format",
		Version: versionString(),
		Commands: []*cli.Command{
			newTokensCommand(),
			newTreeCommand(),
			newFmtCommand(),
			newCheckCommand(),
			newOutlineCommand(),
			newIndexCommand(),
			newCollectionsCommand(),
			newFilesCommand(),
			newCatCommand(),
			newSearchCommand(),
			newSyncCommand(),
			newSourcesCommand(),
			newInitCommand(),
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output as JSON"}
}

// env is what every command needs from the config file.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	parse  parser.Options
}

// loadEnv reads the config named by --config, or the nearest lex.toml, and
// falls back to the defaults when there is none.
func loadEnv(cmd *cli.Command) (*env, error) {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	return newEnv(cfg)
}

// loadEnvStrict is loadEnv for commands that only make sense with a config
// file.
func loadEnvStrict(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	return newEnv(cfg)
}

func newEnv(cfg *config.Config) (*env, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: logging.Format(cfg.LogFormat),
	})
	if err != nil {
		return nil, err
	}

	policy, err := block.ParsePolicy(cfg.SessionInContent)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger}
	e.parse = parser.Options{
		TabWidth:         cfg.TabWidth,
		IndentWidth:      cfg.IndentWidth,
		SessionInContent: policy,
		Logger:           &e.logger,
	}

	return e, nil
}

func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildTime)
}
