package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/samvad-hq/mercury-reader/internal/app"
	"github.com/samvad-hq/mercury-reader/internal/config"
	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/internal/reader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mercury failed: %v\n", err)
		os.Exit(1)
	}
}

// Main represents the program. Fields left nil are filled from the environment.
type Main struct {
	Config *config.Config
	// NewParser builds the parser client; tests swap in a stub.
	NewParser func(cfg *config.Config, log logger.Logger) (reader.Parser, error)
}

// NewMain returns a Main wired to the real Mercury client.
func NewMain() *Main {
	return &Main{
		NewParser: func(cfg *config.Config, log logger.Logger) (reader.Parser, error) {
			return app.NewMercuryClient(cfg, log)
		},
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mercury"),
		kong.Description("Read articles in your terminal or browser. Powered by the Mercury Parser."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.UsageOnError(),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mercury --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := m.Config
	if cfg == nil {
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if cli.Verbose {
		cfg.LogLevel = "debug"
	}
	if _, err := logger.InitTo(cfg, stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Config: cfg,
		Log:    logger.Default(),
	}
	deps.Parser = func() (reader.Parser, error) { return m.NewParser(cfg, deps.Log) }

	return kctx.Run(deps)
}
