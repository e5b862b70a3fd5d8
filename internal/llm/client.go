package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"andse-chat/internal/domain"
)

// StreamClient define la interfaz hacia el motor de razonamiento externo:
// genera la respuesta en chunks ordenados y sugiere títulos de sesión.
type StreamClient interface {
	// StreamChat emite cada fragmento por onChunk en orden de llegada y
	// devuelve el texto completo al terminar.
	StreamChat(ctx context.Context, systemPrompt string, history []domain.Message, userInput string, onChunk func(chunk string)) (string, error)
	SuggestTitle(ctx context.Context, userInput, assistantReply string) (string, error)
}

// HTTPClient implementa StreamClient contra una API OpenAI-compatible.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPClient construye un cliente apuntando a la API de chat completions.
func NewHTTPClient(baseURL, apiKey, model string) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *HTTPClient) StreamChat(ctx context.Context, systemPrompt string, history []domain.Message, userInput string, onChunk func(chunk string)) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Sender, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userInput})

	resp, err := c.post(ctx, chatRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// La API emite Server-Sent Events: líneas "data: {json}" y un
	// "data: [DONE]" terminal.
	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return "", fmt.Errorf("unmarshal stream event: %w", err)
		}
		if ev.Error != nil {
			return "", fmt.Errorf("llm api error: %s", ev.Error.Message)
		}
		if len(ev.Choices) == 0 {
			continue
		}
		chunk := ev.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}

	if full.Len() == 0 {
		return "", fmt.Errorf("llm empty response")
	}
	return full.String(), nil
}

func (c *HTTPClient) SuggestTitle(ctx context.Context, userInput, assistantReply string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this exchange as a conversation title of at most five words. Reply with the title only.\n\nUser: %s\nAssistant: %s",
		userInput, assistantReply,
	)

	resp, err := c.post(ctx, chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("llm api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm empty response")
	}

	title := strings.Trim(strings.TrimSpace(cr.Choices[0].Message.Content), `"`)
	return title, nil
}

func (c *HTTPClient) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("llm http error: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
