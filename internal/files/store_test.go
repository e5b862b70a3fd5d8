package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"andse-chat/internal/domain"
)

func TestDiskStoreSave_RoutesByCategory(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	cases := []struct {
		filename string
		want     domain.MediaType
	}{
		{"foto.PNG", domain.MediaImage},
		{"informe.pdf", domain.MediaDocument},
		{"nota.webm", domain.MediaAudio},
		{"clip.mp4", domain.MediaVideo},
	}
	for _, c := range cases {
		attachment, err := store.Save(c.filename, []byte("data"))
		if err != nil {
			t.Fatalf("%s: %v", c.filename, err)
		}
		if attachment.MediaType != c.want {
			t.Fatalf("%s: expected %s, got %s", c.filename, c.want, attachment.MediaType)
		}
		if got := filepath.Base(filepath.Dir(attachment.Filepath)); got != string(c.want) {
			t.Fatalf("%s: expected category dir %s, got %s", c.filename, c.want, got)
		}
		if _, err := os.Stat(attachment.Filepath); err != nil {
			t.Fatalf("%s: expected file on disk: %v", c.filename, err)
		}
	}
}

func TestDiskStoreSave_RejectsUnknownExtension(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	if _, err := store.Save("malware.exe", []byte("data")); !errors.Is(err, ErrTypeNotAllowed) {
		t.Fatalf("expected ErrTypeNotAllowed, got %v", err)
	}
	if _, err := store.Save("sinextension", []byte("data")); !errors.Is(err, ErrTypeNotAllowed) {
		t.Fatalf("expected ErrTypeNotAllowed, got %v", err)
	}
}

func TestDiskStoreSave_RejectsEmpty(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	if _, err := store.Save("", []byte("data")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := store.Save("a.png", nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestDiskStoreSave_GeneratesUniqueNames(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	a, err := store.Save("igual.png", []byte("uno"))
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, err := store.Save("igual.png", []byte("dos"))
	if err != nil {
		t.Fatalf("save b: %v", err)
	}
	if a.Filename == b.Filename {
		t.Fatalf("expected unique filenames, both %q", a.Filename)
	}
	if !strings.HasSuffix(a.Filename, ".png") {
		t.Fatalf("expected original extension kept, got %q", a.Filename)
	}
}

func TestDetectMediaType(t *testing.T) {
	if mt, ok := domain.DetectMediaType("x.JPEG"); !ok || mt != domain.MediaImage {
		t.Fatalf("expected image, got %s ok=%v", mt, ok)
	}
	if _, ok := domain.DetectMediaType("x."); ok {
		t.Fatalf("expected trailing dot rejected")
	}
}
