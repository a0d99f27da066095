package services

import (
	"context"
	"iter"

	"google.golang.org/genai"
)

// ChatModel is the hosted chat-completion model.
const ChatModel = "gemini-2.0-flash"

// Generator streams chat-completion text for an assembled prompt. The
// sequence yields text deltas; a non-nil error terminates the stream.
type Generator interface {
	Stream(ctx context.Context, spec PromptSpec) iter.Seq2[string, error]
}

// GeminiGenerator streams completions from the hosted Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator wraps an already-constructed Gemini client.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: ChatModel}
}

// Stream sends the prompt and yields text deltas as they arrive.
func (g *GeminiGenerator) Stream(ctx context.Context, spec PromptSpec) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents := promptContents(spec)

		config := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.7)),
		}
		if spec.System != "" {
			config.SystemInstruction = genai.NewContentFromText(spec.System, genai.RoleUser)
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				yield("", err)
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// promptContents maps prompt messages onto wire contents, assistant turns
// becoming model turns.
func promptContents(spec PromptSpec) []*genai.Content {
	contents := make([]*genai.Content, 0, len(spec.Messages))
	for _, msg := range spec.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	return contents
}
