// Package fetcher collects candidate articles from news sources.
package fetcher

import (
	"context"
	"time"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// Source produces articles published since a cutoff. Implementations may
// return partial results together with an error.
type Source interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) ([]model.Article, error)
}

// SourceError reports a source that could not be read. It is recovered:
// the run continues and records a warning.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }
