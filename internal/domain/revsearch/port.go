package revsearch

import (
	"context"
	"errors"
)

// ErrNotSearched indicates the searcher was absent or timed out; callers
// degrade to a "not searched" note instead of failing the pipeline.
var ErrNotSearched = errors.New("reverse image search not performed")

// Searcher port untuk optional network reverse-image search
type Searcher interface {
	// Matches returns the number of known matches for the image bytes.
	Matches(ctx context.Context, image []byte) (int, error)
}
