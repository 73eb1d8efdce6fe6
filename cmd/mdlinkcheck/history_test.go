package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/mdlinkcheck/internal/database"
	"github.com/nao1215/mdlinkcheck/internal/model"
)

var (
	historyLinkA = model.BrokenLink{SourceFile: "index.md", Link: "a.md", AttemptedPath: "a.md"}
	historyLinkB = model.BrokenLink{SourceFile: "index.md", Link: "b.md", AttemptedPath: "b.md"}
	historyLinkC = model.BrokenLink{SourceFile: "guide/x.md", Link: "/c", AttemptedPath: "c"}
)

// seedHistory records one run per entry of runs for baseDir and returns the
// database directory and the run IDs in insertion order.
func seedHistory(t *testing.T, baseDir string, runs ...[]model.BrokenLink) (string, []int64) {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ids := make([]int64, 0, len(runs))
	for i, links := range runs {
		report := model.NewReport(baseDir)
		report.DateScanned = time.Date(2026, 1, 1+i*10, 12, 0, 0, 0, time.UTC)
		report.AddResult(model.DocumentResult{
			Document:     model.Document{RelPath: "index.md"},
			LinksChecked: len(links),
			BrokenLinks:  links,
		})
		id, err := db.SaveReport(context.Background(), report)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		ids = append(ids, id)
	}
	return dbDir, ids
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [dir]" {
		t.Errorf("expected use 'history [dir]', got %q", cmd.Use)
	}

	for name, shorthand := range map[string]string{
		"list":        "l",
		"list-dirs":   "L",
		"with-run-id": "i",
		"since":       "s",
		"json":        "j",
		"markdown":    "m",
		"prune":       "",
		"db-dir":      "",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("%s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

// TestHistoryCompare tests comparing recorded runs.
func TestHistoryCompare(t *testing.T) {
	t.Parallel()

	baseDir := filepath.Join(t.TempDir(), "docs")
	dbDir, ids := seedHistory(t, baseDir,
		[]model.BrokenLink{historyLinkA},
		[]model.BrokenLink{historyLinkA, historyLinkB},
		[]model.BrokenLink{historyLinkB, historyLinkC},
	)

	t.Run("latest two runs in text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Comparing runs for " + baseDir,
			"from: #" + strconv.FormatInt(ids[1], 10),
			"to:   #" + strconv.FormatInt(ids[2], 10),
			"Newly broken (1):\n  + guide/x.md: /c",
			"Fixed (1):\n  - index.md: a.md",
			"Unchanged: 1",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("specific run in json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir,
			"-i", strconv.FormatInt(ids[0], 10), "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var diff database.RunDiff
		if err := json.Unmarshal([]byte(stdout), &diff); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if diff.FromID != ids[0] || diff.ToID != ids[2] {
			t.Errorf("unexpected runs %d -> %d", diff.FromID, diff.ToID)
		}
		if len(diff.New) != 2 || len(diff.Fixed) != 1 || diff.Unchanged != 0 {
			t.Errorf("unexpected diff %+v", diff)
		}
	})

	t.Run("since date in markdown", func(t *testing.T) {
		t.Parallel()

		// The second run is on 2026-01-11.
		stdout, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir,
			"--since", "2026-01-05", "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"# Broken Links Comparison",
			"## Newly Broken",
			"## Fixed",
			"#" + strconv.FormatInt(ids[1], 10),
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected markdown to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir, "--list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "(3 runs)") {
			t.Errorf("expected 3 runs, got:\n%s", stdout)
		}
		if !strings.Contains(stdout, "1 docs, 2 checked, 2 broken") {
			t.Errorf("expected run summary, got:\n%s", stdout)
		}
	})

	t.Run("lists directories", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runRoot(t, "history", "--db-dir", dbDir, "--list-dirs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Recorded directories (1)") || !strings.Contains(stdout, baseDir) {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("unknown run id", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir, "-i", "999")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("latest run id is rejected", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir, "-i", strconv.FormatInt(ids[2], 10))
		if err == nil || !strings.Contains(err.Error(), "latest run") {
			t.Errorf("expected latest run error, got %v", err)
		}
	})

	t.Run("invalid since date", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir, "--since", "01/05/2026")
		if err == nil || !strings.Contains(err.Error(), "invalid date format") {
			t.Errorf("expected date format error, got %v", err)
		}
	})
}

// TestHistoryErrors tests failures that do not need recorded changes.
func TestHistoryErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "docs", "--db-dir", filepath.Join(t.TempDir(), "none"))
		if err == nil || !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected database not found error, got %v", err)
		}
	})

	t.Run("single run cannot be compared", func(t *testing.T) {
		t.Parallel()

		baseDir := filepath.Join(t.TempDir(), "docs")
		dbDir, _ := seedHistory(t, baseDir, []model.BrokenLink{historyLinkA})

		_, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir)
		if !errors.Is(err, errNotEnoughRuns) {
			t.Errorf("expected errNotEnoughRuns, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "docs", "--json", "--markdown")
		if err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})

	t.Run("run id with since", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "docs", "-i", "1", "--since", "2026-01-01")
		if err == nil {
			t.Error("expected error for --with-run-id with --since")
		}
	})

	t.Run("negative prune", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "docs", "--prune=-2")
		if err == nil {
			t.Error("expected error for negative --prune")
		}
	})
}

// TestHistoryPrune tests deleting old runs.
func TestHistoryPrune(t *testing.T) {
	t.Parallel()

	baseDir := filepath.Join(t.TempDir(), "docs")
	dbDir, ids := seedHistory(t, baseDir,
		[]model.BrokenLink{historyLinkA},
		[]model.BrokenLink{historyLinkB},
		[]model.BrokenLink{historyLinkC},
	)

	stdout, _, err := runRoot(t, "history", baseDir, "--db-dir", dbDir, "--prune", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Deleted 2 run(s)") {
		t.Errorf("unexpected output %q", stdout)
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), baseDir)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != ids[2] {
		t.Errorf("expected only the latest run to remain, got %+v", runs)
	}
}

// TestSelectRuns tests choosing the runs to compare.
func TestSelectRuns(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2026, 2, d, 9, 0, 0, 0, time.Local) }
	runs := []database.RunMetadata{
		{ID: 7, Timestamp: day(20)},
		{ID: 5, Timestamp: day(10)},
		{ID: 2, Timestamp: day(1)},
	}

	tests := []struct {
		name     string
		runs     []database.RunMetadata
		id       int64
		since    string
		wantFrom int64
		wantErr  bool
	}{
		{name: "previous run by default", runs: runs, wantFrom: 5},
		{name: "explicit run", runs: runs, id: 2, wantFrom: 2},
		{name: "since picks the oldest run on or after the date", runs: runs, since: "2026-02-05", wantFrom: 5},
		{name: "since before all runs", runs: runs, since: "2025-12-31", wantFrom: 2},
		{name: "since after all but the latest", runs: runs, since: "2026-02-15", wantErr: true},
		{name: "too few runs", runs: runs[:1], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			from, to, err := selectRuns(tt.runs, tt.id, tt.since)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if from.ID != tt.wantFrom || to.ID != 7 {
				t.Errorf("expected %d -> 7, got %d -> %d", tt.wantFrom, from.ID, to.ID)
			}
		})
	}
}

// TestOutputDiffText tests the unchanged case of the text comparison.
func TestOutputDiffText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	outputDiffText(&buf, "docs",
		database.RunMetadata{ID: 1}, database.RunMetadata{ID: 2},
		&database.RunDiff{FromID: 1, ToID: 2, Unchanged: 3})

	if !strings.Contains(buf.String(), "No changes. 3 broken link(s) in both runs.") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
