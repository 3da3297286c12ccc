package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	"github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/trainer"
)

func requireSQLite(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	requireSQLite(t)
	storage := coreconfig.StorageConfig{
		Driver:   coreconfig.DriverSQLite,
		Database: coreconfig.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "wordbot.db")},
	}
	if err := database.RunMigrations(storage); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Connect(context.Background(), storage)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db)
}

func countWords(t *testing.T, db *sqlx.DB, chatID int64) int {
	t.Helper()
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT COUNT(*) FROM dictionary_words WHERE chat_id = ?`), chatID); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSQLStoreSeedAndCopyTemplate(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "words.txt")
	writeFile(t, path, "cat|кот|0\ndog|собака|1\n|broken|0")
	if err := s.SeedTemplate(ctx, path); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// A second seed leaves the existing template alone.
	writeFile(t, path, "owl|сова|0")
	if err := s.SeedTemplate(ctx, path); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n := countWords(t, s.db, TemplateChatID); n != 2 {
		t.Fatalf("template words = %d, want 2", n)
	}

	d, err := s.Load(ctx, 5)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d) != 2 || d[0].Text != "cat" || d[1].CorrectAnswersCount != 1 {
		t.Fatalf("loaded = %+v", d)
	}

	d[0].CorrectAnswersCount = 2
	if err := s.Save(ctx, 5, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n := countWords(t, s.db, TemplateChatID); n != 2 {
		t.Fatalf("template modified, words = %d", n)
	}
	again, err := s.Load(ctx, 5)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again[0].CorrectAnswersCount != 2 {
		t.Fatalf("progress lost: %+v", again[0])
	}
}

func TestSQLStoreEmptyDictionaryIsARecord(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	if err := s.SeedTemplate(ctx, filepath.Join(t.TempDir(), "missing.txt")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Save(ctx, 9, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	d, err := s.Load(ctx, 9)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d) != 0 {
		t.Fatalf("expected empty dictionary, got %d", len(d))
	}
}

func TestSQLStoreSaveIsAllOrNothing(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	orig := trainer.Dictionary{{Text: "cat", Translate: "кот", CorrectAnswersCount: 1}}
	if err := s.Save(ctx, 3, orig); err != nil {
		t.Fatalf("save: %v", err)
	}
	bad := trainer.Dictionary{
		{Text: "dog", Translate: "собака"},
		{Text: "neg", Translate: "x", CorrectAnswersCount: -1},
	}
	if err := s.Save(ctx, 3, bad); err == nil {
		t.Fatal("expected constraint violation")
	}
	d, err := s.Load(ctx, 3)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d) != 1 || d[0].Text != "cat" {
		t.Fatalf("record changed after failed save: %+v", d)
	}
}
