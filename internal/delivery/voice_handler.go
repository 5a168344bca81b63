package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_exchange/internal/pipeline"
	"github.com/Vovarama1992/voice_exchange/internal/speech"
	json "github.com/goccy/go-json"
)

const (
	msgNoAudio         = "No audio file received"
	msgNoText          = "No text provided"
	msgEmptyTranscript = "Transcription failed or was empty"
	msgAudioTooLarge   = "Audio file too large"
	audioFormField     = "audio"
)

type Pipeline interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*bytes.Reader, error)
}

type VoiceHandler struct {
	pipeline  Pipeline
	tts       Synthesizer
	maxUpload int64
	log       *logger.ZapLogger
}

func NewVoiceHandler(p Pipeline, tts Synthesizer, maxUpload int64, log *logger.ZapLogger) *VoiceHandler {
	return &VoiceHandler{
		pipeline:  p,
		tts:       tts,
		maxUpload: maxUpload,
		log:       log,
	}
}

type sttResponse struct {
	TranscribedText string `json:"transcribed_text"`
	AIResponse      string `json:"ai_response"`
	TTSAudioURL     string `json:"tts_audio_url"`
}

type ttsRequest struct {
	Text string `json:"text"`
}

// STT: audio upload → transcript + reply + audio URL.
func (h *VoiceHandler) STT(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	file, header, err := r.FormFile(audioFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Log(logger.LogEntry{Level: "warn", Message: "upload too large", Error: err})
			writeError(w, http.StatusRequestEntityTooLarge, msgAudioTooLarge)
			return
		}
		h.log.Log(logger.LogEntry{Level: "warn", Message: "missing audio field", Error: err})
		writeError(w, http.StatusBadRequest, msgNoAudio)
		return
	}
	defer file.Close()

	// A client disconnect does not abort transcription or the chat call.
	ctx := context.WithoutCancel(r.Context())

	res, err := h.pipeline.Run(ctx, pipeline.Input{
		Audio:       file,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, speech.ErrEmptyTranscript) {
			msg = msgEmptyTranscript
		}
		h.log.Log(logger.LogEntry{Level: "error", Message: "stt pipeline failed", Error: err})
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, sttResponse{
		TranscribedText: res.TranscribedText,
		AIResponse:      res.AIResponse,
		TTSAudioURL:     res.TTSAudioURL,
	})
}

// TTSAudio: {"text": ...} → audio/mpeg stream.
func (h *VoiceHandler) TTSAudio(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	// An unreadable body carries no text; it falls through to the 400 below.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, msgNoText)
		return
	}

	audio, err := h.tts.Synthesize(context.WithoutCancel(r.Context()), req.Text)
	if err != nil {
		if errors.Is(err, speech.ErrNoText) {
			writeError(w, http.StatusBadRequest, msgNoText)
			return
		}
		h.log.Log(logger.LogEntry{Level: "error", Message: "tts failed", Error: err})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(audio.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "stream audio", Error: err})
	}
}
