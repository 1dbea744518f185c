package main

import (
	"context"
	"io"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/ingest"
	"github.com/akarwowski/docdex/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Store    docdex.Store
	Pipeline *ingest.Pipeline
	Asker    docdex.Asker
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Dir        string `env:"DOCDEX_DIR" help:"Data directory (default ~/.docdex)"`
	Collection string `env:"DOCDEX_COLLECTION" default:"default" help:"Collection name"`
	Provider   string `env:"DOCDEX_PROVIDER" default:"gemini" enum:"gemini,openai" help:"Embedding and generation provider"`
	Verbose    bool   `short:"v" help:"Enable debug logging"`

	Ingest IngestCmd `cmd:"" help:"Index documents from a JSON export file"`
	Search SearchCmd `cmd:"" help:"Search the indexed documentation"`
	Ask    AskCmd    `cmd:"" help:"Ask a question about the indexed documentation"`
	Stats  StatsCmd  `cmd:"" help:"Show collection statistics"`
	Reset  ResetCmd  `cmd:"" help:"Delete every record in the collection"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct {
	File        string `arg:"" help:"JSON file containing an array of documents"`
	Concurrency int    `short:"c" default:"4" help:"Chunking worker limit"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query   string `arg:"" help:"Search query"`
	K       int    `short:"k" default:"5" help:"Number of results"`
	Source  string `help:"Restrict to one source"`
	DocType string `help:"Restrict to one document type"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask about the documentation"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct {
	Force bool `help:"Confirm deletion"`
}
