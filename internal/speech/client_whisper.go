package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

const (
	formFieldFile           = "file"
	formFieldModel          = "model"
	formFieldLanguage       = "language"
	formFieldBeamSize       = "beam_size"
	formFieldResponseFormat = "response_format"
)

// WhisperClient talks to an OpenAI-compatible transcription endpoint
// served by a local whisper engine (faster-whisper, whisper.cpp server).
// The engine process holds the loaded model; this client is stateless.
type WhisperClient struct {
	url       string
	healthURL string
	apiKey    string
	client    *http.Client
}

func NewWhisperClient(url, healthURL, apiKey string, client *http.Client) *WhisperClient {
	if client == nil {
		client = &http.Client{}
	}
	return &WhisperClient{
		url:       url,
		healthURL: healthURL,
		apiKey:    apiKey,
		client:    client,
	}
}

type whisperResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, filePath string, opts TranscribeOptions) ([]Segment, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile(formFieldFile, filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	fields := map[string]string{
		formFieldModel:          opts.Model,
		formFieldBeamSize:       strconv.Itoa(opts.BeamSize),
		formFieldLanguage:       opts.Language,
		formFieldResponseFormat: "verbose_json",
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write %s field: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("whisper error: status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	if len(parsed.Segments) == 0 && parsed.Text != "" {
		return []Segment{{Text: parsed.Text}}, nil
	}
	return parsed.Segments, nil
}

// Warmup checks the engine is reachable before the server starts taking traffic.
// Without a health URL it is a no-op.
func (c *WhisperClient) Warmup(ctx context.Context) error {
	if c.healthURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper health check failed with status: %s", resp.Status)
	}
	return nil
}
