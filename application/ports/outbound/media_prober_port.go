package outbound

import "context"

// MediaProberPort measures the duration of an encoded media file in seconds.
type MediaProberPort interface {
	Duration(ctx context.Context, path string) (float64, error)
}
