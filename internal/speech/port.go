package speech

import (
	"context"
	"io"
)

// Segment is one timed fragment of transcribed text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscribeOptions struct {
	Model    string
	BeamSize int
	Language string
}

// Transcriber is the STT engine: audio file on disk → ordered segments.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string, opts TranscribeOptions) ([]Segment, error)
}

// Synthesizer is the TTS engine: text → encoded audio stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (io.ReadCloser, error)
}
