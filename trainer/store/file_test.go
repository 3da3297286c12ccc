package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/wordbot/trainer"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFileStoreSeedsFromDefault(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "words.txt")
	writeFile(t, defaultPath, "cat|кот|0\nbad line\ndog|собака|2")

	s := NewFileStore(filepath.Join(dir, "chats"), defaultPath)
	d, err := s.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d) != 2 || d[1].Text != "dog" || d[1].CorrectAnswersCount != 2 {
		t.Fatalf("loaded = %+v", d)
	}
	if _, err := os.Stat(s.Path(42)); err != nil {
		t.Fatalf("chat record not created: %v", err)
	}

	// Later edits of the default must not leak into an existing chat.
	writeFile(t, defaultPath, "owl|сова|0")
	d, err = s.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(d) != 2 {
		t.Fatalf("reload = %d words, want 2", len(d))
	}
}

func TestFileStoreMissingDefault(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, filepath.Join(dir, "absent.txt"))
	d, err := s.Load(context.Background(), 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d) != 0 {
		t.Fatalf("expected empty dictionary, got %d words", len(d))
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, filepath.Join(dir, "absent.txt"))
	ctx := context.Background()
	want := trainer.Dictionary{
		{Text: "cat", Translate: "кот", CorrectAnswersCount: 3},
		{Text: "fox", Translate: "лиса", CorrectAnswersCount: 1},
	}
	if err := s.Save(ctx, -100123, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(s.Path(-100123))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if string(raw) != "cat|кот|3\nfox|лиса|1" {
		t.Fatalf("record = %q", raw)
	}
	got, err := s.Load(ctx, -100123)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d words, want %d", len(got), len(want))
	}
	for i := range want {
		if *got[i] != *want[i] {
			t.Errorf("word %d = %+v, want %+v", i, *got[i], *want[i])
		}
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreSaveRejectsDelimiter(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, "")
	ctx := context.Background()
	if err := s.Save(ctx, 1, trainer.Dictionary{{Text: "ok", Translate: "fine"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := s.Save(ctx, 1, trainer.Dictionary{{Text: "a|b", Translate: "c"}})
	if !errors.Is(err, trainer.ErrFieldDelimiter) {
		t.Fatalf("err = %v, want ErrFieldDelimiter", err)
	}
	raw, _ := os.ReadFile(s.Path(1))
	if string(raw) != "ok|fine|0" {
		t.Fatalf("previous record damaged: %q", raw)
	}
}
