package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/akarwowski/docdex"
)

// DefaultGenerationModel is the OpenAI model used for answer generation.
const DefaultGenerationModel = openai.GPT4oMini

const systemPrompt = "You are a helpful assistant answering questions about software library documentation. Answer based only on the documentation provided. If the answer is not in the documentation, say so."

// Ensure Generator implements docdex.Generator at compile time.
var _ docdex.Generator = (*Generator)(nil)

// Generator implements docdex.Generator using OpenAI chat completions.
type Generator struct {
	client *openai.Client
	model  string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGenerationModel overrides the generation model.
func WithGenerationModel(model string) GeneratorOption {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// NewGenerator creates a Generator over the OpenAI client.
func NewGenerator(client *openai.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{client: client, model: DefaultGenerationModel}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers a question grounded in the retrieved results.
func (g *Generator) Generate(ctx context.Context, question string, results []docdex.SearchResult) (string, error) {
	if question == "" {
		return "", docdex.Errorf(docdex.EINVALID, "question required")
	}
	if len(results) == 0 {
		return "", docdex.Errorf(docdex.EINVALID, "at least one context document required")
	}

	rsp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(results, question)},
		},
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(rsp.Choices) == 0 || rsp.Choices[0].Message.Content == "" {
		return "", docdex.Errorf(docdex.EINTERNAL, "openai returned no completion")
	}

	return rsp.Choices[0].Message.Content, nil
}

// BuildUserPrompt builds the user prompt containing retrieved context
// and the question.
func BuildUserPrompt(results []docdex.SearchResult, question string) string {
	return fmt.Sprintf("%s\n\nQuestion: %s", docdex.FormatResults(results), question)
}
