package vision

import (
	"context"
	"errors"
)

// ErrExtraction marks any failure of the reading-extraction dependency:
// service unavailable, malformed response, non-numeric result. The caller
// must not retry and must not persist anything.
var ErrExtraction = errors.New("extraction_failed")

// Extractor derives the integer consumption value shown on a meter image.
type Extractor interface {
	Extract(ctx context.Context, imageBase64 string) (int64, error)
}
