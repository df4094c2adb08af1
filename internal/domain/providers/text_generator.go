package providers

import "context"

// TextGenerator is a generative text service. Its output is untrusted
// free text.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
