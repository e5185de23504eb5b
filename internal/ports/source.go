package ports

import (
	"context"
	"time"
)

// SourceLoader materialises model and formula references. A reference is a
// filesystem path or a git reference of the form
// git::URL//path/in/repo?ref=branch. Implementations must respect ctx and
// wrap failures with the offending reference.
type SourceLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Verdict is a cached model-checking outcome.
type Verdict struct {
	Satisfied bool          `json:"satisfied"`
	Formula   string        `json:"formula"`
	Algorithm string        `json:"algorithm"`
	Vertices  int           `json:"vertices"`
	Edges     int           `json:"edges"`
	Duration  time.Duration `json:"duration"`
	CheckedAt time.Time     `json:"checked_at"`
}

// VerdictCache stores verdicts keyed by a digest of the checked inputs.
// Implementations must be safe for concurrent use.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*Verdict, bool, error)
	Put(ctx context.Context, key string, verdict Verdict) error
}
