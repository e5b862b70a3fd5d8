package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/domain"
	"andse-chat/internal/llm"
)

type recordingBroadcaster struct {
	events []chat.Event
}

func (b *recordingBroadcaster) Broadcast(_ string, event chat.Event) {
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) names() []string {
	out := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Name)
	}
	return out
}

func newChatService(engine llm.StreamClient) (*ChatService, *mockSessionRepo, *mockMessageRepo, *recordingBroadcaster) {
	sessions := newMockSessionRepo()
	messages := newMockMessageRepo()
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(zap.NewNop(), sessions, messages, engine, broadcaster, "system prompt")
	return svc, sessions, messages, broadcaster
}

func TestChatServiceHandleSend_EmptyRejected(t *testing.T) {
	svc, _, messages, broadcaster := newChatService(&llm.MockClient{})

	_, err := svc.HandleSend(context.Background(), "", "", nil)
	if !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(messages.messages) != 0 {
		t.Fatalf("expected nothing persisted")
	}
	if len(broadcaster.events) != 0 {
		t.Fatalf("expected no events emitted")
	}
}

func TestChatServiceHandleSend_UnknownSession(t *testing.T) {
	svc, _, _, _ := newChatService(&llm.MockClient{Chunks: []string{"x"}})

	if _, err := svc.HandleSend(context.Background(), "ghost", "hola", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestChatServiceHandleSend_LazySessionAndEventOrder(t *testing.T) {
	engine := &llm.MockClient{Chunks: []string{"Hel", "lo"}, Title: "Saludo inicial"}
	svc, sessions, messages, broadcaster := newChatService(engine)

	session, err := svc.HandleSend(context.Background(), "", "hola asistente", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected lazily created session")
	}

	wantOrder := []string{
		chat.EventTypingStart,
		chat.EventMessageChunk,
		chat.EventMessageChunk,
		chat.EventTypingEnd,
		chat.EventUpdateTitle,
	}
	got := broadcaster.names()
	if len(got) != len(wantOrder) {
		t.Fatalf("expected events %v, got %v", wantOrder, got)
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Fatalf("event %d: expected %s, got %s", i, wantOrder[i], got[i])
		}
	}

	persisted := messages.messages[session.ID]
	if len(persisted) != 2 {
		t.Fatalf("expected user+assistant persisted, got %d", len(persisted))
	}
	if persisted[1].Sender != domain.RoleAssistant || persisted[1].Content != "Hello" {
		t.Fatalf("expected finalized assistant message, got %+v", persisted[1])
	}

	if stored := sessions.sessions[session.ID]; stored.Title != "Saludo inicial" {
		t.Fatalf("expected suggested title, got %q", stored.Title)
	}
}

func TestChatServiceHandleSend_LazyTitleTruncated(t *testing.T) {
	engine := &llm.MockClient{Chunks: []string{"ok"}, TitleErr: errors.New("down")}
	svc, sessions, _, _ := newChatService(engine)

	long := strings.Repeat("palabra ", 10)
	session, err := svc.HandleSend(context.Background(), "", long, nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	stored := sessions.sessions[session.ID]
	if !strings.HasSuffix(stored.Title, "...") {
		t.Fatalf("expected truncated title, got %q", stored.Title)
	}
	if got := len([]rune(stored.Title)); got != lazyTitleRunes+3 {
		t.Fatalf("expected %d runes, got %d (%q)", lazyTitleRunes+3, got, stored.Title)
	}
}

func TestChatServiceHandleSend_EngineFailureEmitsTypingEnd(t *testing.T) {
	engine := &llm.MockClient{Err: errors.New("engine down")}
	svc, _, messages, broadcaster := newChatService(engine)

	_, err := svc.HandleSend(context.Background(), "", "hola", nil)
	if err == nil {
		t.Fatalf("expected error")
	}

	got := broadcaster.names()
	if len(got) != 2 || got[0] != chat.EventTypingStart || got[1] != chat.EventTypingEnd {
		t.Fatalf("expected typing_start+typing_end, got %v", got)
	}

	// El turno del usuario quedó persistido; el asistente no.
	var total int
	for _, msgs := range messages.messages {
		total += len(msgs)
	}
	if total != 1 {
		t.Fatalf("expected only user message persisted, got %d", total)
	}
}

func TestChatServiceHandleSend_AttachmentOnly(t *testing.T) {
	engine := &llm.MockClient{Chunks: []string{"veo tu archivo"}, Title: "Archivo"}
	svc, _, messages, _ := newChatService(engine)

	attachment := &domain.Attachment{Filepath: "/up/image/x.png", Filename: "x.png", MediaType: domain.MediaImage}
	session, err := svc.HandleSend(context.Background(), "", "", attachment)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	persisted := messages.messages[session.ID]
	if len(persisted) == 0 || persisted[0].Attachment == nil || persisted[0].Attachment.Filename != "x.png" {
		t.Fatalf("expected attachment persisted with user message, got %+v", persisted)
	}
}

func TestChatServiceHandleSend_ExistingSessionNoTitleUpdate(t *testing.T) {
	engine := &llm.MockClient{Chunks: []string{"respuesta"}, Title: "No debería usarse"}
	svc, sessions, messages, broadcaster := newChatService(engine)

	// Sesión con historia previa: el título ya está establecido.
	session, err := svc.HandleSend(context.Background(), "", "primer mensaje", nil)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	broadcaster.events = nil

	// El repo real reporta el conteo vía subquery; el mock lo refleja a mano.
	stored := sessions.sessions[session.ID]
	stored.MessageCount = 2
	sessions.sessions[session.ID] = stored

	if _, err := svc.HandleSend(context.Background(), session.ID, "segundo mensaje", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}

	for _, name := range broadcaster.names() {
		if name == chat.EventUpdateTitle {
			t.Fatalf("expected no title update after first exchange")
		}
	}
	if len(messages.messages[session.ID]) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages.messages[session.ID]))
	}
}
