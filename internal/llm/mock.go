package llm

import (
	"context"
	"strings"

	"andse-chat/internal/domain"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Chunks   []string
	Title    string
	Err      error
	TitleErr error
}

func (m *MockClient) StreamChat(_ context.Context, _ string, _ []domain.Message, _ string, onChunk func(chunk string)) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	for _, chunk := range m.Chunks {
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return strings.Join(m.Chunks, ""), nil
}

func (m *MockClient) SuggestTitle(_ context.Context, _, _ string) (string, error) {
	return m.Title, m.TitleErr
}
