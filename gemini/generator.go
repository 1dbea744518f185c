package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/akarwowski/docdex"
)

// DefaultGenerationModel is the Gemini model used for answer generation.
const DefaultGenerationModel = "gemini-2.5-flash"

// Ensure Generator implements docdex.Generator at compile time.
var _ docdex.Generator = (*Generator)(nil)

// Generator implements docdex.Generator using Google Gemini.
type Generator struct {
	client *genai.Client
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

// NewGenerator creates a Generator over the Gemini client.
func NewGenerator(client *genai.Client, opts ...GeneratorOption) *Generator {
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

	prompt := BuildUserPrompt(results, question)
	config := BuildConfig()

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return "", mapError(err)
	}
	if result == nil {
		return "", docdex.Errorf(docdex.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about software library documentation. Answer based only on the documentation provided. If the answer is not in the documentation, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing retrieved context
// and the question.
func BuildUserPrompt(results []docdex.SearchResult, question string) string {
	var sb strings.Builder
	sb.WriteString("<documents>\n")
	for i, res := range results {
		title := res.Metadata["title"]
		if title == "" {
			title = res.Metadata["url"]
		}
		if title == "" {
			title = res.Metadata["source"]
		}
		sb.WriteString("<document>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		fmt.Fprintf(&sb, "<source>%s</source>\n", res.Metadata["source"])
		fmt.Fprintf(&sb, "<content>%s</content>\n", res.Content)
		sb.WriteString("</document>\n")
	}
	sb.WriteString("</documents>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
