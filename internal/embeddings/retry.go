package embeddings

import (
	"context"
	"time"

	"github.com/ziadkadry99/knowbase/internal/llm"
)

// RetryingEmbedder wraps an Embedder with the same jittered backoff policy
// used for completions. Exhausted or non-transient failures surface as a
// GenerationError so ingestion and retrieval can treat both ports uniformly.
type RetryingEmbedder struct {
	embedder Embedder
	cfg      llm.RetryConfig
}

// WithRetry decorates the given embedder with the retry policy.
func WithRetry(embedder Embedder, cfg llm.RetryConfig) Embedder {
	if cfg.MaxAttempts <= 0 {
		cfg = llm.DefaultRetryConfig()
	}
	return &RetryingEmbedder{embedder: embedder, cfg: cfg}
}

func (r *RetryingEmbedder) Name() string {
	return r.embedder.Name()
}

func (r *RetryingEmbedder) Dimensions() int {
	return r.embedder.Dimensions()
}

func (r *RetryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	delay := r.cfg.BaseDelay

	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		vectors, err := r.embedder.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !llm.IsTransient(err) {
			return nil, &llm.GenerationError{Provider: r.embedder.Name(), Op: "embedding", Err: err}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(llm.Jitter(delay)):
			delay *= 2
			if delay > r.cfg.MaxDelay {
				delay = r.cfg.MaxDelay
			}
		}
	}

	return nil, &llm.GenerationError{Provider: r.embedder.Name(), Op: "embedding", Err: lastErr}
}
