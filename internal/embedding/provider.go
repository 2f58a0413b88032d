// ABOUTME: Provider interface for turning text into embedding vectors
// ABOUTME: ProviderFunc adapts plain functions, used heavily in tests
package embedding

import "context"

// DefaultDimension is the vector length of text-embedding-3-small
const DefaultDimension = 1536

// Provider converts text into an embedding vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed calls f(ctx, text).
func (f ProviderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
