package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/utils"
	"github.com/xrsl/cvago/pkg/workflow"
)

func useTempState(t *testing.T) {
	t.Helper()
	old := utils.StateDir
	utils.StateDir = filepath.Join(t.TempDir(), ".cvago")
	t.Cleanup(func() { utils.StateDir = old })
}

func TestKeyDeterministic(t *testing.T) {
	tests := []struct {
		name      string
		a, b      [2]string
		wantEqual bool
	}{
		{"same inputs", [2]string{"http://x", "Go dev"}, [2]string{"http://x", "Go dev"}, true},
		{"whitespace around jd", [2]string{"http://x", " Go dev\n"}, [2]string{"http://x", "Go dev"}, true},
		{"trailing slash on server", [2]string{"http://x/", "Go dev"}, [2]string{"http://x", "Go dev"}, true},
		{"different jd", [2]string{"http://x", "Go dev"}, [2]string{"http://x", "Rust dev"}, false},
		{"different server", [2]string{"http://x", "Go dev"}, [2]string{"http://y", "Go dev"}, false},
		{"no boundary collision", [2]string{"http://xa", "b"}, [2]string{"http://x", "ab"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := Key(tt.a[0], tt.a[1])
			kb := Key(tt.b[0], tt.b[1])
			if (ka == kb) != tt.wantEqual {
				t.Errorf("Key equal = %v, want %v", ka == kb, tt.wantEqual)
			}
			if len(ka) != 64 {
				t.Errorf("key length = %d", len(ka))
			}
		})
	}
}

func TestWriteReadLatest(t *testing.T) {
	useTempState(t)

	if _, _, err := Latest(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Latest on empty state err = %v", err)
	}

	s := workflow.Session{
		JD:          "Go dev",
		Summary:     "Backend role",
		Match:       &api.MatchResult{Approved: true, Score: 82, Threshold: 70, ReasonsFor: []string{"Go"}},
		CanGenerate: true,
		Language:    "en",
		AnalyzedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	key := Key("http://x", s.JD)
	if err := Write(key, s); err != nil {
		t.Fatal(err)
	}
	if !Exists(key) {
		t.Error("Exists = false after Write")
	}
	if !utils.FileExists(utils.StatePath(".gitignore")) {
		t.Error("state dir has no .gitignore")
	}

	gotKey, got, err := Latest()
	if err != nil {
		t.Fatal(err)
	}
	if gotKey != key || got.Summary != "Backend role" || got.Match == nil || got.Match.Score != 82 || !got.AnalyzedAt.Equal(s.AnalyzedAt) {
		t.Errorf("Latest = %q %+v", gotKey, got)
	}

	other := Key("http://x", "Rust dev")
	if err := Write(other, workflow.Session{JD: "Rust dev", Summary: "Systems"}); err != nil {
		t.Fatal(err)
	}
	if k, _, _ := Latest(); k != other {
		t.Error("latest not updated")
	}
	if _, err := Read(key); err != nil {
		t.Errorf("older session lost: %v", err)
	}

	if err := Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(key); !errors.Is(err, ErrNoSession) {
		t.Errorf("Read after Clear err = %v", err)
	}
}

func TestListFindRemove(t *testing.T) {
	useTempState(t)

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	older := Key("http://x", "Go dev")
	newer := Key("http://x", "Rust dev")
	if err := Write(newer, workflow.Session{JD: "Rust dev", AnalyzedAt: day.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := Write(older, workflow.Session{JD: "Go dev", AnalyzedAt: day}); err != nil {
		t.Fatal(err)
	}

	entries, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Key != newer || entries[1].Key != older {
		t.Fatalf("List order = %+v", entries)
	}
	if entries[0].Latest || !entries[1].Latest {
		t.Error("latest mark should follow the last write")
	}

	key, s, err := Find(newer[:10])
	if err != nil || key != newer || s.JD != "Rust dev" {
		t.Errorf("Find = %q %+v %v", key, s, err)
	}
	if _, _, err := Find("zzz"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Find unknown err = %v", err)
	}
	if key, _, err := Find(""); err != nil || key != older {
		t.Errorf("Find empty = %q %v, want latest", key, err)
	}

	if err := Remove(older); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Latest(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Latest after removing it err = %v", err)
	}
	if err := Remove(older); !errors.Is(err, ErrNoSession) {
		t.Errorf("second Remove err = %v", err)
	}
	if entries, _ := List(); len(entries) != 1 {
		t.Errorf("entries left = %d", len(entries))
	}
}
