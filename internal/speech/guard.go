package speech

import "context"

// Guarded bounds the number of concurrent calls into a shared Transcriber.
// With a limit of 1 calls are fully serialized.
type Guarded struct {
	next Transcriber
	sem  chan struct{}
}

func NewGuarded(next Transcriber, limit int) *Guarded {
	if limit < 1 {
		limit = 1
	}
	return &Guarded{
		next: next,
		sem:  make(chan struct{}, limit),
	}
}

func (g *Guarded) Transcribe(ctx context.Context, filePath string, opts TranscribeOptions) ([]Segment, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-g.sem }()

	return g.next.Transcribe(ctx, filePath, opts)
}
