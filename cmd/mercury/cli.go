package main

import (
	"context"
	"io"
	"time"

	"github.com/samvad-hq/mercury-reader/internal/config"
	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/internal/reader"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
	Log    logger.Logger
	Parser func() (reader.Parser, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log requests at debug level"`

	Read  ReadCmd  `cmd:"" help:"Parse one or more articles and print them"`
	Serve ServeCmd `cmd:"" help:"Run the reader web server"`
}

// ReadCmd is the "read" subcommand.
type ReadCmd struct {
	URLs     []string      `arg:"" name:"url" help:"Article URL(s) to read"`
	Format   string        `short:"f" help:"Content type requested from the service (html, markdown, text)"`
	FetchAll bool          `name:"fetch-all" help:"Merge multi-page articles into one"`
	Output   string        `short:"o" enum:"text,markdown,json" default:"text" help:"How to print the article (text, markdown, json)"`
	Width    int           `short:"w" default:"80" help:"Wrap column for text output"`
	Timeout  time.Duration `short:"t" default:"0s" help:"Give up after this long (0 waits indefinitely)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (defaults to READER_ADDR)"`
}
