package docdex

import "context"

// Generator produces a natural language answer to a question given ranked
// context passages. Implementations (Gemini, OpenAI) are selected once via
// configuration, never probed per call.
type Generator interface {
	Generate(ctx context.Context, question string, results []SearchResult) (string, error)
}

// Asker provides natural language question answering over the indexed
// documentation.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
