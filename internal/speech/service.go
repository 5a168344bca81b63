// Package speech adapts the STT and TTS engines to the voice exchange.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var (
	ErrEmptyTranscript = errors.New("transcription failed or was empty")
	ErrNoText          = errors.New("no text provided")
)

type Service struct {
	stt     Transcriber
	tts     Synthesizer
	sttOpts TranscribeOptions
	ttsLang string
	log     *zap.SugaredLogger
}

func NewService(stt Transcriber, tts Synthesizer, sttOpts TranscribeOptions, ttsLang string, log *zap.SugaredLogger) *Service {
	if sttOpts.BeamSize < 1 {
		sttOpts.BeamSize = 1
	}
	if ttsLang == "" {
		ttsLang = "en"
	}
	return &Service{
		stt:     stt,
		tts:     tts,
		sttOpts: sttOpts,
		ttsLang: ttsLang,
		log:     log,
	}
}

// voice → text
func (s *Service) Transcribe(ctx context.Context, filePath string) (string, error) {
	segments, err := s.stt.Transcribe(ctx, filePath, s.sttOpts)
	if err != nil {
		s.log.Warnf("[stt] transcribe %s: %v", filePath, err)
		return "", err
	}

	text := JoinSegments(segments)
	s.log.Debugf("[stt] %d segments -> %q", len(segments), text)

	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// text → voice. Each call owns a fresh buffer, rewound before it is returned.
func (s *Service) Synthesize(ctx context.Context, text string) (*bytes.Reader, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	rc, err := s.tts.Synthesize(ctx, text, s.ttsLang)
	if err != nil {
		s.log.Warnf("[tts] synthesize %d chars: %v", len(text), err)
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}

	s.log.Debugf("[tts] synthesized %s for %d chars", humanize.Bytes(uint64(buf.Len())), len(text))

	return bytes.NewReader(buf.Bytes()), nil
}

// JoinSegments space-joins segment texts in order and trims the result.
func JoinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
