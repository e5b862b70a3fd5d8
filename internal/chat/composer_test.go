package chat

import (
	"errors"
	"testing"

	"andse-chat/internal/domain"
)

func TestComposerFlush_ReturnsAndResets(t *testing.T) {
	c := NewComposer()
	c.SetText("hola")
	c.StageFile(domain.Attachment{Filename: "a.png", MediaType: domain.MediaImage})

	composite, err := c.Flush()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if composite.Text != "hola" {
		t.Fatalf("expected text %q, got %q", "hola", composite.Text)
	}
	if composite.Attachment == nil || composite.Attachment.Filename != "a.png" {
		t.Fatalf("expected attachment a.png, got %+v", composite.Attachment)
	}

	if c.HasContent() {
		t.Fatalf("expected empty composer after flush")
	}
	if _, err := c.Flush(); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage after flush, got %v", err)
	}
}

func TestComposerStageFile_LastWriteWins(t *testing.T) {
	c := NewComposer()
	c.StageFile(domain.Attachment{Filename: "a.png"})
	c.StageFile(domain.Attachment{Filename: "b.pdf"})

	composite, err := c.Flush()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if composite.Attachment == nil || composite.Attachment.Filename != "b.pdf" {
		t.Fatalf("expected attachment B only, got %+v", composite.Attachment)
	}
}

func TestComposerStageTranscript_OverwritesTypedText(t *testing.T) {
	c := NewComposer()
	c.SetText("texto tipeado")
	c.StageTranscript("texto dictado")

	composite, err := c.Flush()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if composite.Text != "texto dictado" {
		t.Fatalf("expected transcript to replace typed text, got %q", composite.Text)
	}
}

func TestComposerFlush_EmptyRejectedStateUnchanged(t *testing.T) {
	c := NewComposer()
	c.SetText("   ")

	if _, err := c.Flush(); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	// El flush fallido no consume nada: staging posterior sigue intacto.
	c.StageFile(domain.Attachment{Filename: "c.txt"})
	composite, err := c.Flush()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if composite.Attachment == nil || composite.Attachment.Filename != "c.txt" {
		t.Fatalf("expected staged attachment, got %+v", composite.Attachment)
	}
}

func TestComposerClearAttachment(t *testing.T) {
	c := NewComposer()
	c.StageFile(domain.Attachment{Filename: "a.png"})
	c.ClearAttachment()

	if c.HasContent() {
		t.Fatalf("expected no content after clear")
	}
}
