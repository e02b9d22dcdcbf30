package narrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const defaultTTSEndpoint = "https://api.elevenlabs.io/v1/text-to-speech/"

// ElevenLabs synthesizes speech through the ElevenLabs text-to-speech API
type ElevenLabs struct {
	apiKey   string
	voiceID  string
	endpoint string
	client   *http.Client
}

func NewElevenLabs(apiKey, voiceID string, timeout time.Duration) *ElevenLabs {
	return &ElevenLabs{
		apiKey:   apiKey,
		voiceID:  voiceID,
		endpoint: defaultTTSEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the client at another base URL (tests, proxies)
func (e *ElevenLabs) WithEndpoint(endpoint string) *ElevenLabs {
	e.endpoint = endpoint
	return e
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.8,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}

	jsonData, err := jsoniter.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+e.voiceID, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text-to-speech API error: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
