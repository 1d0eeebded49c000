package llm

import "fmt"

// GenerationError indicates an embedding or completion provider failed after
// the retry budget was exhausted (or the failure was non-transient). Callers
// at the pipeline boundary decide whether to abort (ingestion) or degrade to
// a low-confidence answer (query answering).
type GenerationError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
