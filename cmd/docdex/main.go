package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/cache"
	"github.com/akarwowski/docdex/flock"
	docgemini "github.com/akarwowski/docdex/gemini"
	"github.com/akarwowski/docdex/htmltomarkdown"
	"github.com/akarwowski/docdex/ingest"
	docopenai "github.com/akarwowski/docdex/openai"
	"github.com/akarwowski/docdex/retrieve"
	docslog "github.com/akarwowski/docdex/slog"
	"github.com/akarwowski/docdex/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database backing the vector store.
	DB *sqlite.DB

	// Caches flushed on shutdown.
	Embeddings *cache.EmbeddingCache
	Responses  *cache.ResponseCache
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program, flushing caches to disk.
func (m *Main) Close() error {
	if m.Embeddings != nil {
		if err := m.Embeddings.Flush(); err != nil {
			return err
		}
	}
	if m.Responses != nil {
		if err := m.Responses.Flush(); err != nil {
			return err
		}
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docdex --help' to see available commands")
	}
	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	dir := cli.Dir
	if dir == "" {
		dir = defaultDataDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %q: %w", dir, err)
	}

	m.DB = sqlite.NewDB(filepath.Join(dir, cli.Collection+".db"))
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCDEX_DIR to use a different data directory")
		return fmt.Errorf("failed to open database in %q: %w", dir, err)
	}
	defer m.Close()

	embedder, generator, err := m.buildProvider(ctx, cli)
	if err != nil {
		return err
	}

	m.Embeddings = cache.NewEmbeddingCache(
		cache.WithEmbeddingDir(dir),
		cache.WithEmbeddingLogger(logger),
	)
	m.Responses = cache.NewResponseCache(
		cache.WithResponseDir(dir),
		cache.WithResponseLogger(logger),
	)

	locker, err := flock.New(dir, cli.Collection)
	if err != nil {
		return fmt.Errorf("failed to prepare collection lock: %w", err)
	}

	store := sqlite.NewStore(m.DB,
		cache.NewEmbedder(embedder, m.Embeddings),
		locker,
		sqlite.WithLogger(logger),
	)
	deps.Store = docslog.NewLoggingStore(store, logger)

	switch cmd {
	case "ingest":
		deps.Pipeline = ingest.New(
			newChunker(logger),
			deps.Store,
			ingest.WithConverter(htmltomarkdown.NewConverter()),
			ingest.WithLogger(logger),
			ingest.WithConcurrency(cli.Ingest.Concurrency),
		)
	case "ask":
		retriever := docslog.NewLoggingRetriever(
			retrieve.New(deps.Store, retrieve.WithLogger(logger)),
			logger,
		)
		askOpts := []retrieve.AskerOption{retrieve.WithAskerLogger(logger)}
		if cli.Provider == "gemini" {
			counter, err := docgemini.NewTokenCounter(docgemini.DefaultGenerationModel)
			if err != nil {
				return fmt.Errorf("failed to create token counter: %w", err)
			}
			askOpts = append(askOpts, retrieve.WithTokenCounter(counter))
		}
		deps.Asker = retrieve.NewAsker(retriever, generator, m.Responses, askOpts...)
	}

	return kongCtx.Run(deps)
}

// buildProvider wires the configured embedding and generation backend.
func (m *Main) buildProvider(ctx context.Context, cli *CLI) (docdex.Embedder, docdex.Generator, error) {
	switch cli.Provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		client := goopenai.NewClient(apiKey)
		return docopenai.NewEmbedder(client), docopenai.NewGenerator(client), nil

	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return docgemini.NewEmbedder(client), docgemini.NewGenerator(client), nil
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docdex"
	}
	return filepath.Join(home, ".docdex")
}
