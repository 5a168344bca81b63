// Package pipeline sequences ingress, transcription, chat and synthesis
// for a single uploaded clip.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Vovarama1992/voice_exchange/internal/upload"
	"github.com/dustin/go-humanize"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// AudioURL is where the caller POSTs the reply text to fetch the audio.
const AudioURL = "/tts_audio"

type State int

const (
	Received State = iota
	Transcribing
	Transcribed
	AwaitingReply
	Replied
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Transcribing:
		return "transcribing"
	case Transcribed:
		return "transcribed"
	case AwaitingReply:
		return "awaiting_reply"
	case Replied:
		return "replied"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stage names used for errors and metrics.
const (
	StageIngress      = "ingress"
	StageTranscribing = "transcribing"
	StageChat         = "chat"
	StageSynthesizing = "synthesizing"
)

// StageError reports which stage short-circuited the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

type Input struct {
	Audio       io.Reader
	ContentType string
}

type Result struct {
	TranscribedText string
	AIResponse      string
	TTSAudioURL     string
	Fallback        bool
}

type Service struct {
	stt      Transcriber
	chat     Responder
	tts      Synthesizer
	tempDir  string
	recorder Recorder
	log      *zap.SugaredLogger
}

func NewService(stt Transcriber, chat Responder, tts Synthesizer, tempDir string, recorder Recorder, log *zap.SugaredLogger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		stt:      stt,
		chat:     chat,
		tts:      tts,
		tempDir:  tempDir,
		recorder: recorder,
		log:      log,
	}
}

// Run executes Received → Transcribing → Transcribed → AwaitingReply → Replied.
// The temp file is released on every exit path.
func (s *Service) Run(ctx context.Context, in Input) (res *Result, err error) {
	id := xid.New().String()
	state := Received
	log := s.log.With("request_id", id)

	advance := func(next State) {
		log.Debugf("[pipeline] %s -> %s", state, next)
		state = next
	}
	defer func() {
		if err != nil {
			log.Warnf("[pipeline] %s -> %s: %v", state, Failed, err)
			state = Failed
		}
	}()

	tmp, err := upload.Acquire(s.tempDir, in.Audio)
	if err != nil {
		return nil, s.fail(StageIngress, err)
	}
	defer func() {
		if relErr := tmp.Release(); relErr != nil {
			log.Warnf("[pipeline] %v", relErr)
		}
	}()
	log.Infof("[pipeline] saved %s (%s) to %s", humanize.Bytes(uint64(tmp.Size())), in.ContentType, tmp.Path())

	advance(Transcribing)
	start := time.Now()
	text, err := s.stt.Transcribe(ctx, tmp.Path())
	s.recorder.ObserveStage(StageTranscribing, time.Since(start))
	if err != nil {
		return nil, s.fail(StageTranscribing, err)
	}
	advance(Transcribed)
	log.Infof("[pipeline] transcribed: %q", text)

	advance(AwaitingReply)
	start = time.Now()
	reply := s.chat.Reply(ctx, text)
	s.recorder.ObserveStage(StageChat, time.Since(start))
	if reply.Fallback {
		s.recorder.RecordFallback()
	}
	log.Infof("[pipeline] reply (fallback=%t): %q", reply.Fallback, reply.Text)

	// Synthesis runs here only to surface engine failure; the audio itself
	// is fetched separately through AudioURL.
	start = time.Now()
	audio, err := s.tts.Synthesize(ctx, reply.Text)
	s.recorder.ObserveStage(StageSynthesizing, time.Since(start))
	if err != nil {
		return nil, s.fail(StageSynthesizing, err)
	}
	s.recorder.RecordSynthesized(audio.Len())

	advance(Replied)
	return &Result{
		TranscribedText: text,
		AIResponse:      reply.Text,
		TTSAudioURL:     AudioURL,
		Fallback:        reply.Fallback,
	}, nil
}

func (s *Service) fail(stage string, err error) error {
	s.recorder.RecordStageFailure(stage)
	return &StageError{Stage: stage, Err: err}
}

// IsStage reports whether err was produced by the given stage.
func IsStage(err error, stage string) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
