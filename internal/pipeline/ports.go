package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/Vovarama1992/voice_exchange/internal/ai"
)

type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

type Responder interface {
	Reply(ctx context.Context, transcript string) ai.Reply
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*bytes.Reader, error)
}

// Recorder receives per-stage observations. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	RecordStageFailure(stage string)
	RecordFallback()
	RecordSynthesized(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) RecordStageFailure(string)          {}
func (nopRecorder) RecordFallback()                    {}
func (nopRecorder) RecordSynthesized(int)              {}
