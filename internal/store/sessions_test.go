package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id, target, inputHash, outputHash string) Session {
	return Session{
		ID:          id,
		Target:      target,
		Module:      "shapes",
		InputPath:   "shapes.json",
		InputHash:   inputHash,
		OptionsHash: "opts-default",
		OutputPath:  "shapes.py",
		OutputHash:  outputHash,
		Lines:       57,
		Bytes:       1024,
		ToolVersion: "0.1.0",
	}
}

func TestRecordSession_Basic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testSession("s-1", "python", "in-a", "out-a")
	seq, err := s.RecordSession(ctx, want)
	if err != nil {
		t.Fatalf("RecordSession() failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	got, err := s.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListSessions() returned %d sessions, want 1", len(got))
	}

	want.Seq = 1
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("stored session = %+v, want %+v", got[0], want)
	}
}

func TestRecordSession_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.RecordSession(ctx, testSession("s-1", "python", "in-a", "out-a"))
	if err != nil {
		t.Fatalf("first RecordSession() failed: %v", err)
	}
	again, err := s.RecordSession(ctx, testSession("s-1", "python", "in-a", "out-other"))
	if err != nil {
		t.Fatalf("second RecordSession() failed: %v", err)
	}
	if first != again {
		t.Errorf("duplicate id got seq %d, want %d", again, first)
	}

	sessions, err := s.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].OutputHash != "out-a" {
		t.Errorf("duplicate write replaced output hash: %q", sessions[0].OutputHash)
	}
}

func TestListSessions_NewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		if _, err := s.RecordSession(ctx, testSession(id, "python", "in", "out")); err != nil {
			t.Fatalf("RecordSession(%s) failed: %v", id, err)
		}
	}

	got, err := s.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}

	var ids []string
	for _, sess := range got {
		ids = append(ids, sess.ID)
	}
	if want := []string{"s-3", "s-2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestListSessions_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListSessions(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if got == nil {
		t.Error("ListSessions() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("got %d sessions, want 0", len(got))
	}
}

func TestLastOutputHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	indented := testSession("s-5", "python", "in-a", "out-indent-2")
	indented.OptionsHash = "opts-indent-2"
	records := []Session{
		testSession("s-1", "python", "in-a", "out-1"),
		testSession("s-2", "python", "in-a", "out-2"),
		testSession("s-3", "trace", "in-a", "trace-1"),
		testSession("s-4", "python", "in-b", "out-b"),
		indented,
	}
	for _, r := range records {
		if _, err := s.RecordSession(ctx, r); err != nil {
			t.Fatalf("RecordSession(%s) failed: %v", r.ID, err)
		}
	}

	tests := []struct {
		name        string
		target      string
		inputHash   string
		optionsHash string
		wantHash    string
		wantFound   bool
	}{
		{"newest wins", "python", "in-a", "opts-default", "out-2", true},
		{"target separates", "trace", "in-a", "opts-default", "trace-1", true},
		{"options separate", "python", "in-a", "opts-indent-2", "out-indent-2", true},
		{"other input", "python", "in-b", "opts-default", "out-b", true},
		{"unknown input", "python", "in-z", "opts-default", "", false},
		{"unknown options", "python", "in-a", "opts-other", "", false},
		{"unknown target", "go", "in-a", "opts-default", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, found, err := s.LastOutputHash(ctx, tt.target, tt.inputHash, tt.optionsHash)
			if err != nil {
				t.Fatalf("LastOutputHash() failed: %v", err)
			}
			if found != tt.wantFound || hash != tt.wantHash {
				t.Errorf("LastOutputHash() = (%q, %v), want (%q, %v)", hash, found, tt.wantHash, tt.wantFound)
			}
		})
	}
}

func TestRecordSession_ClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.Close()

	if _, err := s.RecordSession(context.Background(), testSession("s-1", "python", "in", "out")); err == nil {
		t.Error("expected error on closed store, got nil")
	}
}
