// Package openai implements embedding.Provider using the OpenAI Embeddings
// API via the official client. Credentials come from the client (typically
// the OPENAI_API_KEY environment variable); the model and output dimensions
// are fixed at construction time.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"

	"github.com/Arephan/supaclaw/embedding"
)

// maxInputRunes bounds the text sent per request. Inputs beyond the model's
// context window would be rejected by the API; truncating client-side keeps
// over-long text from surfacing as a provider failure.
const maxInputRunes = 8192

// Options configure the OpenAI embedding provider.
type Options struct {
	Model      openai.EmbeddingModel
	Dimensions int
}

// Provider wraps the OpenAI Embeddings endpoint behind embedding.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a provider using a default client configured from the
// environment.
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:      openai.EmbeddingModelTextEmbedding3Small,
		Dimensions: 1536,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Embed requests an embedding for text. Any API failure is returned as a
// *embedding.ProviderError; this provider never reports ErrUnavailable.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if r := []rune(text); len(r) > maxInputRunes {
		text = string(r[:maxInputRunes])
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: p.opts.Model,
	})
	if err != nil {
		return nil, &embedding.ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &embedding.ProviderError{Provider: "openai", Err: errNoData}
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured embedding size.
func (p *Provider) Dimensions() int { return p.opts.Dimensions }

var errNoData = errors.New("no embedding data returned")
