package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// HTTPTranscriber implementa Transcriber contra un servicio STT por HTTP.
// Envía el audio como multipart y espera {"text": "..."} en la respuesta.
type HTTPTranscriber struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPTranscriber(baseURL, apiKey string, timeout time.Duration) *HTTPTranscriber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "speech.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("stt http error: status=%d", resp.StatusCode)
	}

	var tr struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if tr.Text == "" {
		return "", fmt.Errorf("stt empty transcript")
	}
	return tr.Text, nil
}
