package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/voice_exchange/internal/ai"
	"github.com/Vovarama1992/voice_exchange/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSTT struct {
	text     string
	err      error
	seenPath string
	existed  bool
}

func (s *stubSTT) Transcribe(_ context.Context, path string) (string, error) {
	s.seenPath = path
	_, statErr := os.Stat(path)
	s.existed = statErr == nil
	return s.text, s.err
}

type stubChat struct {
	reply ai.Reply
	got   string
}

func (s *stubChat) Reply(_ context.Context, transcript string) ai.Reply {
	s.got = transcript
	return s.reply
}

type stubTTS struct {
	err    error
	called bool
}

func (s *stubTTS) Synthesize(_ context.Context, text string) (*bytes.Reader, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return bytes.NewReader([]byte("mp3:" + text)), nil
}

type countingRecorder struct {
	stages    []string
	failures  []string
	fallbacks int
	bytes     int
}

func (r *countingRecorder) ObserveStage(stage string, _ time.Duration) { r.stages = append(r.stages, stage) }
func (r *countingRecorder) RecordStageFailure(stage string)          { r.failures = append(r.failures, stage) }
func (r *countingRecorder) RecordFallback()                          { r.fallbacks++ }
func (r *countingRecorder) RecordSynthesized(n int)                  { r.bytes += n }

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp audio must be removed")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stt := &stubSTT{text: "hello there"}
	chat := &stubChat{reply: ai.Reply{Text: "Hi! How can I help?"}}
	tts := &stubTTS{}
	rec := &countingRecorder{}

	svc := pipeline.NewService(stt, chat, tts, dir, rec, zap.NewNop().Sugar())

	res, err := svc.Run(context.Background(), pipeline.Input{Audio: strings.NewReader("RIFF"), ContentType: "audio/wav"})
	require.NoError(t, err)

	assert.Equal(t, "hello there", res.TranscribedText)
	assert.Equal(t, "Hi! How can I help?", res.AIResponse)
	assert.Equal(t, "/tts_audio", res.TTSAudioURL)
	assert.False(t, res.Fallback)

	assert.True(t, stt.existed, "engine must see the persisted upload")
	assert.True(t, strings.HasSuffix(stt.seenPath, ".wav"))
	assert.Equal(t, "hello there", chat.got)
	assert.True(t, tts.called)
	assert.Equal(t, []string{pipeline.StageTranscribing, pipeline.StageChat, pipeline.StageSynthesizing}, rec.stages)
	assert.Equal(t, len("mp3:Hi! How can I help?"), rec.bytes)

	assertDirEmpty(t, dir)
}

func TestRun_FallbackStillSucceeds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chat := &stubChat{reply: ai.Reply{Text: ai.FallbackReply, Fallback: true, Cause: errors.New("502")}}
	rec := &countingRecorder{}

	svc := pipeline.NewService(&stubSTT{text: "hi"}, chat, &stubTTS{}, dir, rec, zap.NewNop().Sugar())

	res, err := svc.Run(context.Background(), pipeline.Input{Audio: strings.NewReader("RIFF")})
	require.NoError(t, err)

	assert.Equal(t, ai.FallbackReply, res.AIResponse)
	assert.True(t, res.Fallback)
	assert.Equal(t, 1, rec.fallbacks)
	assertDirEmpty(t, dir)
}

func TestRun_TranscriptionFailureShortCircuits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chat := &stubChat{}
	tts := &stubTTS{}
	rec := &countingRecorder{}

	svc := pipeline.NewService(&stubSTT{err: errors.New("decoder crashed")}, chat, tts, dir, rec, zap.NewNop().Sugar())

	_, err := svc.Run(context.Background(), pipeline.Input{Audio: strings.NewReader("RIFF")})
	require.Error(t, err)

	assert.True(t, pipeline.IsStage(err, pipeline.StageTranscribing))
	assert.Equal(t, "decoder crashed", err.Error())
	assert.Empty(t, chat.got)
	assert.False(t, tts.called)
	assert.Equal(t, []string{pipeline.StageTranscribing}, rec.failures)
	assertDirEmpty(t, dir)
}

func TestRun_SynthesisFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := pipeline.NewService(
		&stubSTT{text: "hi"},
		&stubChat{reply: ai.Reply{Text: "hello"}},
		&stubTTS{err: errors.New("tts failed: 503")},
		dir, nil, zap.NewNop().Sugar(),
	)

	_, err := svc.Run(context.Background(), pipeline.Input{Audio: strings.NewReader("RIFF")})
	require.Error(t, err)

	assert.True(t, pipeline.IsStage(err, pipeline.StageSynthesizing))
	assert.Contains(t, err.Error(), "503")
	assertDirEmpty(t, dir)
}

func TestRun_IngressFailure(t *testing.T) {
	t.Parallel()

	missing := t.TempDir() + "/does-not-exist"
	svc := pipeline.NewService(&stubSTT{}, &stubChat{}, &stubTTS{}, missing, nil, zap.NewNop().Sugar())

	_, err := svc.Run(context.Background(), pipeline.Input{Audio: strings.NewReader("RIFF")})
	require.Error(t, err)
	assert.True(t, pipeline.IsStage(err, pipeline.StageIngress))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "received", pipeline.Received.String())
	assert.Equal(t, "awaiting_reply", pipeline.AwaitingReply.String())
	assert.Equal(t, "replied", pipeline.Replied.String())
}
