package auditsink

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/workspace-governor/governor/internal/governor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func makeEntry(ts time.Time, auditID string) *governor.AuditEntry {
	return &governor.AuditEntry{
		AuditID:   auditID,
		Timestamp: ts.UTC().Format("2006-01-02T15:04:05.000Z"),
		Tool:      "read_file",
		Risk:      "read",
		Decision:  "allowed",
		Code:      "success",
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "audit")
	sink, err := New(Config{Dir: dir}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sink.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
}

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(Config{Dir: dir}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	entry := makeEntry(time.Now(), "audit-1")
	if err := sink.Append(entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatal(err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, "audit-"+today+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected audit file to exist: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty audit file")
	}
}

func TestAppendRotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(Config{Dir: dir}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if err := sink.Append(makeEntry(yesterday, "audit-yesterday")); err != nil {
		t.Fatal(err)
	}
	if err := sink.Append(makeEntry(time.Now(), "audit-today")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 rotated files, got %d", len(entries))
	}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(Config{Dir: dir}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	for i := 0; i < 3; i++ {
		entry := makeEntry(time.Now(), "audit-"+string(rune('a'+i)))
		if err := sink.Append(entry); err != nil {
			t.Fatal(err)
		}
	}

	recent := sink.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].AuditID != "audit-c" {
		t.Fatalf("expected newest first, got %s", recent[0].AuditID)
	}
}

func TestRetentionDeletesOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldName := "audit-2000-01-01.log"
	if err := os.WriteFile(filepath.Join(dir, oldName), []byte(`{}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	sink, err := New(Config{Dir: dir, RetentionDays: 1}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	if _, err := os.Stat(filepath.Join(dir, oldName)); !os.IsNotExist(err) {
		t.Fatal("expected old audit file to be removed by retention cleanup")
	}
}
