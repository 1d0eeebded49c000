package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/knowbase/internal/llm"
)

type fakeEmbedder struct {
	dims     int
	failures int
	calls    int
	err      error
}

func (f *fakeEmbedder) Name() string    { return "fake" }
func (f *fakeEmbedder) Dimensions() int { return f.dims }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func TestWithRetryRecovers(t *testing.T) {
	fake := &fakeEmbedder{dims: 4, failures: 2, err: errors.New("rate_limit_exceeded")}
	e := WithRetry(fake, llm.RetryConfig{MaxAttempts: 5, BaseDelay: 1, MaxDelay: 1})

	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if fake.calls != 3 {
		t.Errorf("underlying embedder called %d times, want 3", fake.calls)
	}
}

func TestWithRetryNonTransientFailsFast(t *testing.T) {
	fake := &fakeEmbedder{dims: 4, failures: 10, err: errors.New("invalid api key")}
	e := WithRetry(fake, llm.RetryConfig{MaxAttempts: 5, BaseDelay: 1, MaxDelay: 1})

	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Errorf("underlying embedder called %d times, want 1", fake.calls)
	}
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("error %v is not a GenerationError", err)
	}
}
