package llm

import "context"

type Provider interface {
	// Generate runs one chat completion with a system and a user message and
	// returns the text content.
	Generate(ctx context.Context, system, user string, opts ...Option) (*Response, error)
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

type Response struct {
	Content string
	Usage   Usage
}
