package history

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndRecent(t *testing.T) {
	db := openTestDB(t)

	id, err := db.Insert(Record{
		VideoID:            "dQw4w9WgXcQ",
		URL:                "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Action:             "summarize",
		Title:              "Never Gonna Give You Up",
		TranscriptStrategy: "captions_api",
		MetadataStrategy:   "video_api",
		Transcript:         "never gonna give you up",
		Language:           "en",
		Summary:            "a classic",
		Succeeded:          true,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("Insert() id = %d", id)
	}

	records, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Recent() returned %d records, want 1", len(records))
	}
	got := records[0]
	if got.VideoID != "dQw4w9WgXcQ" || got.Action != "summarize" || !got.Succeeded {
		t.Errorf("Recent() record = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at was not populated")
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestCachedTranscript(t *testing.T) {
	db := openTestDB(t)

	if _, _, _, ok, err := db.CachedTranscript("dQw4w9WgXcQ"); err != nil || ok {
		t.Fatalf("CachedTranscript() on empty db = ok %v, err %v", ok, err)
	}

	// A failed request with no transcript must not populate the cache.
	if _, err := db.Insert(Record{VideoID: "dQw4w9WgXcQ", Action: "transcribe", ErrorText: "exhausted"}); err != nil {
		t.Fatal(err)
	}
	if _, _, _, ok, _ := db.CachedTranscript("dQw4w9WgXcQ"); ok {
		t.Fatal("CachedTranscript() returned a hit for an empty transcript")
	}

	if _, err := db.Insert(Record{
		VideoID:            "dQw4w9WgXcQ",
		Action:             "transcribe",
		Transcript:         "old text",
		Language:           "en",
		TranscriptStrategy: "yt_dlp",
		Succeeded:          true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Insert(Record{
		VideoID:            "dQw4w9WgXcQ",
		Action:             "summarize",
		Transcript:         "new text",
		Language:           "en",
		TranscriptStrategy: "captions_api",
		Succeeded:          true,
	}); err != nil {
		t.Fatal(err)
	}

	text, lang, strategy, ok, err := db.CachedTranscript("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("CachedTranscript() error = %v", err)
	}
	if !ok {
		t.Fatal("CachedTranscript() missed a stored transcript")
	}
	if text != "new text" || lang != "en" || strategy != "captions_api" {
		t.Errorf("CachedTranscript() = %q, %q, %q", text, lang, strategy)
	}

	if _, _, _, ok, _ := db.CachedTranscript("otherVideoXX"); ok {
		t.Error("CachedTranscript() returned a hit for a different video")
	}
}
