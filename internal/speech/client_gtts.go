package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxChunkRunes is the longest text the translate_tts endpoint accepts per request.
const maxChunkRunes = 100

// GoogleTTS synthesizes MP3 speech through the Google Translate TTS endpoint.
type GoogleTTS struct {
	baseURL string
	client  *http.Client
}

func NewGoogleTTS(baseURL string, client *http.Client) *GoogleTTS {
	if client == nil {
		client = &http.Client{}
	}
	return &GoogleTTS{
		baseURL: baseURL,
		client:  client,
	}
}

// Synthesize fetches each chunk in order and concatenates the MP3 frames.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) (io.ReadCloser, error) {
	chunks := SplitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, &out, chunk, lang, i, len(chunks)); err != nil {
			return nil, err
		}
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("tts returned no audio")
	}
	return io.NopCloser(&out), nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, dst *bytes.Buffer, chunk, lang string, idx, total int) error {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return fmt.Errorf("parse tts url: %w", err)
	}

	q := u.Query()
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("tts failed: %d (%s): %s", resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(b))
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("read tts audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tts returned an empty body")
	}
	return nil
}

// SplitText breaks text into chunks of at most limit runes, preferring
// whitespace boundaries. A single word longer than limit is hard-split.
// A limit below 1 is treated as 1.
func SplitText(text string, limit int) []string {
	if limit < 1 {
		limit = 1
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)

		for wordLen > limit {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:limit]))
			word = string(runes[limit:])
			wordLen -= limit
		}
		if wordLen == 0 {
			continue
		}

		if curLen > 0 && curLen+1+wordLen > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wordLen
	}
	flush()

	return chunks
}
