package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// FileName is the name of the history database inside the data directory.
const FileName = "history.db"

// busyTimeoutMillis is how long a connection waits for a lock held by
// another process before failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores the results of past check runs so that successive runs
// over the same base directory can be compared.
type HistoryDB struct {
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'mdlinkcheck check --record' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(" + strconv.Itoa(busyTimeoutMillis) + ")"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per recorded check run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_dir TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		documents_scanned INTEGER NOT NULL DEFAULT 0,
		links_checked INTEGER NOT NULL DEFAULT 0,
		links_skipped INTEGER NOT NULL DEFAULT 0,
		broken_count INTEGER NOT NULL DEFAULT 0,
		read_failure_count INTEGER NOT NULL DEFAULT 0,
		report BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_dir ON runs(base_dir);

	-- Broken links of each run, keyed by fingerprint for diffing
	CREATE TABLE IF NOT EXISTS broken_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		source_file TEXT NOT NULL,
		link TEXT NOT NULL,
		attempted_path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_broken_run ON broken_links(run_id);
	CREATE INDEX IF NOT EXISTS idx_broken_fingerprint ON broken_links(fingerprint);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// historyKey returns the form of baseDir under which runs are stored.
// The same tree reached through different relative paths shares a history.
func historyKey(baseDir string) string {
	if abs, err := filepath.Abs(baseDir); err == nil {
		return abs
	}
	return filepath.Clean(baseDir)
}

// SaveReport stores a completed report and its broken links.
// It returns the ID of the new run.
func (h *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	var blob bytes.Buffer
	if err := msgpack.NewEncoder(&blob).Encode(report); err != nil {
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (base_dir, timestamp, documents_scanned, links_checked, links_skipped,
		broken_count, read_failure_count, report)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		historyKey(report.BaseDir),
		report.DateScanned.UTC().Format(time.RFC3339Nano),
		report.DocumentsScanned,
		report.LinksChecked,
		report.LinksSkipped,
		len(report.BrokenLinks),
		len(report.ReadFailures),
		blob.Bytes(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO broken_links (run_id, position, fingerprint, source_file, link, attempted_path)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, link := range report.BrokenLinks {
		if _, err := stmt.ExecContext(ctx, runID, i, link.Fingerprint(),
			link.SourceFile, link.Link, link.AttemptedPath); err != nil {
			return 0, fmt.Errorf("failed to save broken link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// It is used for listing history without decoding the full report.
type RunMetadata struct {
	ID               int64     `json:"id"`
	BaseDir          string    `json:"base_dir"`
	Timestamp        time.Time `json:"timestamp"`
	DocumentsScanned int       `json:"documents_scanned"`
	LinksChecked     int       `json:"links_checked"`
	LinksSkipped     int       `json:"links_skipped"`
	BrokenCount      int       `json:"broken_count"`
	ReadFailureCount int       `json:"read_failure_count"`
}

// ListBaseDirs returns every base directory with at least one stored run.
func (h *HistoryDB) ListBaseDirs(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT base_dir FROM runs ORDER BY base_dir`)
	if err != nil {
		return nil, fmt.Errorf("failed to list base directories: %w", err)
	}
	defer rows.Close()

	var dirs []string
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, fmt.Errorf("failed to scan base directory: %w", err)
		}
		dirs = append(dirs, dir)
	}

	return dirs, rows.Err()
}

// ListRuns returns the runs recorded for baseDir, newest first.
func (h *HistoryDB) ListRuns(ctx context.Context, baseDir string) ([]RunMetadata, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, base_dir, timestamp, documents_scanned, links_checked, links_skipped,
		broken_count, read_failure_count
	FROM runs
	WHERE base_dir = ?
	ORDER BY id DESC
	`, historyKey(baseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var (
			meta      RunMetadata
			timestamp string
			counts    [5]int64
		)
		if err := rows.Scan(&meta.ID, &meta.BaseDir, &timestamp,
			&counts[0], &counts[1], &counts[2], &counts[3], &counts[4]); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		targets := []*int{
			&meta.DocumentsScanned, &meta.LinksChecked, &meta.LinksSkipped,
			&meta.BrokenCount, &meta.ReadFailureCount,
		}
		for i, target := range targets {
			n, err := safecast.Conv[int](counts[i])
			if err != nil {
				return nil, fmt.Errorf("run %d: count out of range: %w", meta.ID, err)
			}
			*target = n
		}

		runs = append(runs, meta)
	}

	return runs, rows.Err()
}

// GetRun decodes the report stored for a run.
// It returns ErrRunNotFound if the ID does not exist.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Report, error) {
	var blob []byte
	err := h.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := msgpack.NewDecoder(bytes.NewReader(blob)).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode run %d: %w", id, err)
	}

	return &report, nil
}

// RunDiff is the difference between the broken links of two runs.
type RunDiff struct {
	// FromID is the older run.
	FromID int64 `json:"from_id"`

	// ToID is the newer run.
	ToID int64 `json:"to_id"`

	// New holds links broken in ToID but not in FromID, in ToID order.
	New []model.BrokenLink `json:"new"`

	// Fixed holds links broken in FromID but not in ToID, in FromID order.
	Fixed []model.BrokenLink `json:"fixed"`

	// Unchanged is the number of links broken in both runs.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether any link was added or fixed.
func (d *RunDiff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Fixed) > 0
}

// Diff compares the broken links of two runs by fingerprint.
func (h *HistoryDB) Diff(ctx context.Context, fromID, toID int64) (*RunDiff, error) {
	for _, id := range []int64{fromID, toID} {
		if err := h.runExists(ctx, id); err != nil {
			return nil, err
		}
	}

	diff := &RunDiff{FromID: fromID, ToID: toID}

	var err error
	if diff.New, err = h.linksMissingFrom(ctx, toID, fromID); err != nil {
		return nil, err
	}
	if diff.Fixed, err = h.linksMissingFrom(ctx, fromID, toID); err != nil {
		return nil, err
	}

	var unchanged int64
	err = h.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM broken_links
	WHERE run_id = ? AND fingerprint IN (SELECT fingerprint FROM broken_links WHERE run_id = ?)
	`, toID, fromID).Scan(&unchanged)
	if err != nil {
		return nil, fmt.Errorf("failed to count unchanged links: %w", err)
	}
	if diff.Unchanged, err = safecast.Conv[int](unchanged); err != nil {
		return nil, fmt.Errorf("unchanged count out of range: %w", err)
	}

	return diff, nil
}

func (h *HistoryDB) runExists(ctx context.Context, id int64) error {
	var n int64
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// linksMissingFrom returns the broken links of runID whose fingerprint does
// not occur in otherID, in the order they were recorded.
func (h *HistoryDB) linksMissingFrom(ctx context.Context, runID, otherID int64) ([]model.BrokenLink, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT source_file, link, attempted_path FROM broken_links
	WHERE run_id = ?
		AND fingerprint NOT IN (SELECT fingerprint FROM broken_links WHERE run_id = ?)
	ORDER BY position
	`, runID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to diff runs: %w", err)
	}
	defer rows.Close()

	links := make([]model.BrokenLink, 0)
	for rows.Next() {
		var link model.BrokenLink
		if err := rows.Scan(&link.SourceFile, &link.Link, &link.AttemptedPath); err != nil {
			return nil, fmt.Errorf("failed to scan broken link: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// PruneRuns deletes all but the newest keep runs for baseDir and returns
// the number of runs deleted.
func (h *HistoryDB) PruneRuns(ctx context.Context, baseDir string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	const stale = `
	SELECT id FROM runs WHERE base_dir = ?
	ORDER BY id DESC LIMIT -1 OFFSET ?
	`
	key := historyKey(baseDir)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM broken_links WHERE run_id IN (`+stale+`)`, key, keep); err != nil {
		return 0, fmt.Errorf("failed to prune broken links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id IN (`+stale+`)`, key, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	return safecast.Conv[int](affected)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
