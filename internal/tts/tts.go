package tts

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client fetches synthesized speech from the Google Translate TTS endpoint.
// Synthesis is a fire-and-forget side effect of the learning flow: callers
// must swallow failures and never block a stage transition on them.
type Client struct {
	baseURL string
	lang    string
	client  *http.Client
}

// New creates a TTS client. The speech language defaults to English and can
// be overridden with the TTS_LANG environment variable.
func New() *Client {
	lang := os.Getenv("TTS_LANG")
	if lang == "" {
		lang = "en"
	}
	return &Client{
		baseURL: "https://translate.google.com/translate_tts",
		lang:    lang,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Synthesize returns MP3 audio bytes for the given text. The slow flag asks
// for reduced speaking speed.
func (c *Client) Synthesize(text string, slow bool) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	speed := "1"
	if slow {
		speed = "0.3"
	}

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", c.lang)
	params.Set("ttsspeed", speed)
	params.Set("q", text)

	req, err := http.NewRequest("GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS endpoint returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %v", err)
	}
	return audio, nil
}
