// Package scrollback provides a searchable index over the lines a cell's
// terminal has produced, backed by SQLite FTS5. server.Session feeds it
// every line its PTY driver reports; the stack engine itself never reads the
// indexed text back, only server.Session.SearchScrollback does.
package scrollback

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Index provides full-text search over the lines produced by cells.
type Index interface {
	// IndexLine indexes a single line produced by cell. isCommand lines
	// (e.g. a builtin's echoed command) are indexed synchronously for
	// immediate searchability; ordinary output is queued for batch
	// indexing.
	IndexLine(cell [16]byte, lineIdx int64, timestamp time.Time, text string, isCommand bool) error

	// DeleteLine removes a line from the index, called when scrollback is
	// trimmed and a line falls out of the retained window.
	DeleteLine(cell [16]byte, lineIdx int64) error

	// Search executes a substring search scoped to one cell's lines.
	Search(cell [16]byte, query string, limit int) ([]Result, error)

	// SearchAll searches across every cell's lines, for a global
	// scrollback-search surface.
	SearchAll(query string, limit int) ([]Result, error)

	// Flush blocks until all pending entries are indexed.
	Flush() error

	// Close flushes pending writes and closes the database.
	Close() error
}

// Result is a single search match.
type Result struct {
	Cell      [16]byte
	LineIdx   int64
	Timestamp time.Time
	Content   string
	IsCommand bool
}

// Config holds tuning parameters for the batch indexer.
type Config struct {
	DBPath        string
	BatchSize     int
	BatchTimeout  time.Duration
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults for dbPath.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     100,
		BatchTimeout:  5 * time.Second,
		ChannelBuffer: 1000,
	}
}

type entry struct {
	cell      [16]byte
	lineIdx   int64
	timestamp time.Time
	text      string
	isCommand bool
}

// SQLiteIndex implements Index using SQLite FTS5 with a trigram tokenizer,
// so arbitrary substrings (not just whole tokens) are searchable.
type SQLiteIndex struct {
	config Config
	db     *sql.DB

	batchChan chan entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	mu sync.RWMutex
}

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS lines (
    id INTEGER PRIMARY KEY,
    cell_id BLOB NOT NULL,
    line_idx INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    is_command INTEGER DEFAULT 0,
    content TEXT NOT NULL,
    UNIQUE(cell_id, line_idx)
);

CREATE INDEX IF NOT EXISTS idx_lines_cell_line ON lines(cell_id, line_idx);
CREATE INDEX IF NOT EXISTS idx_lines_timestamp ON lines(timestamp);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
    content,
    content='lines',
    content_rowid='id',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
    INSERT INTO lines_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS lines_au AFTER UPDATE ON lines BEGIN
    INSERT INTO lines_fts(lines_fts, rowid, content) VALUES ('delete', old.id, old.content);
    INSERT INTO lines_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
    INSERT INTO lines_fts(lines_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;
`

// Open creates or opens a SQLite-backed scrollback index at config.DBPath.
func Open(config Config) (*SQLiteIndex, error) {
	if config.BatchSize == 0 {
		config = DefaultConfig(config.DBPath)
	}
	if dir := filepath.Dir(config.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("scrollback: create directory: %w", err)
		}
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-8000)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("scrollback: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("scrollback: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("scrollback: create schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("scrollback: record schema version: %w", err)
	}
	if _, err := db.Exec(ftsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("scrollback: create fts schema: %w", err)
	}

	idx := &SQLiteIndex{
		config:    config,
		db:        db,
		batchChan: make(chan entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go idx.batchIndexer()
	return idx, nil
}

func (idx *SQLiteIndex) batchIndexer() {
	defer close(idx.doneCh)

	batch := make([]entry, 0, idx.config.BatchSize)
	timer := time.NewTimer(idx.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		idx.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-idx.batchChan:
			batch = append(batch, e)
			if len(batch) >= idx.config.BatchSize {
				flush()
				timer.Reset(idx.config.BatchTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(idx.config.BatchTimeout)
		case done := <-idx.flushCh:
			draining := true
			for draining {
				select {
				case e := <-idx.batchChan:
					batch = append(batch, e)
				default:
					draining = false
				}
			}
			flush()
			close(done)
		case <-idx.stopCh:
			for {
				select {
				case e := <-idx.batchChan:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (idx *SQLiteIndex) flushBatch(batch []entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		log.Printf("scrollback: begin batch transaction: %v", err)
		return
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO lines (cell_id, line_idx, timestamp, is_command, content) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("scrollback: prepare batch insert: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		isCmd := 0
		if e.isCommand {
			isCmd = 1
		}
		if _, err := stmt.Exec(e.cell[:], e.lineIdx, e.timestamp.UnixNano(), isCmd, e.text); err != nil {
			log.Printf("scrollback: insert line %d: %v", e.lineIdx, err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("scrollback: commit batch: %v", err)
	}
}

func (idx *SQLiteIndex) IndexLine(cell [16]byte, lineIdx int64, timestamp time.Time, text string, isCommand bool) error {
	if text == "" {
		return nil
	}
	e := entry{cell: cell, lineIdx: lineIdx, timestamp: timestamp, text: text, isCommand: isCommand}
	if isCommand {
		return idx.indexSync(e)
	}
	select {
	case idx.batchChan <- e:
	default:
		// Backpressure: drop rather than block the per-frame coordinator loop.
	}
	return nil
}

func (idx *SQLiteIndex) indexSync(e entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	isCmd := 0
	if e.isCommand {
		isCmd = 1
	}
	_, err := idx.db.Exec(
		"INSERT OR REPLACE INTO lines (cell_id, line_idx, timestamp, is_command, content) VALUES (?, ?, ?, ?, ?)",
		e.cell[:], e.lineIdx, e.timestamp.UnixNano(), isCmd, e.text,
	)
	return err
}

func (idx *SQLiteIndex) DeleteLine(cell [16]byte, lineIdx int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.db.Exec("DELETE FROM lines WHERE cell_id = ? AND line_idx = ?", cell[:], lineIdx)
	return err
}

func (idx *SQLiteIndex) Search(cell [16]byte, query string, limit int) ([]Result, error) {
	return idx.search(query, limit, "AND l.cell_id = ?", cell[:])
}

func (idx *SQLiteIndex) SearchAll(query string, limit int) ([]Result, error) {
	return idx.search(query, limit, "")
}

func (idx *SQLiteIndex) search(query string, limit int, extraWhere string, extraArgs ...interface{}) ([]Result, error) {
	if query == "" {
		return nil, nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var rows *sql.Rows
	var err error

	// Trigram tokenizer needs at least 3 characters; fall back to LIKE
	// for shorter queries.
	if len(query) < 3 {
		likePattern := "%" + strings.ReplaceAll(strings.ReplaceAll(query, "%", "\\%"), "_", "\\_") + "%"
		args := append([]interface{}{likePattern}, extraArgs...)
		args = append(args, limit)
		rows, err = idx.db.Query(fmt.Sprintf(`
			SELECT l.cell_id, l.line_idx, l.timestamp, l.content, l.is_command
			FROM lines l
			WHERE l.content LIKE ? ESCAPE '\' %s
			ORDER BY l.timestamp DESC
			LIMIT ?
		`, extraWhere), args...)
	} else {
		quotedQuery := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		args := append([]interface{}{quotedQuery}, extraArgs...)
		args = append(args, limit)
		rows, err = idx.db.Query(fmt.Sprintf(`
			SELECT l.cell_id, l.line_idx, l.timestamp, l.content, l.is_command
			FROM lines_fts
			JOIN lines l ON l.id = lines_fts.rowid
			WHERE lines_fts MATCH ? %s
			ORDER BY l.timestamp DESC
			LIMIT ?
		`, extraWhere), args...)
	}
	if err != nil {
		return nil, fmt.Errorf("scrollback: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var cellBytes []byte
		var tsNano int64
		var isCmd int
		if err := rows.Scan(&cellBytes, &r.LineIdx, &tsNano, &r.Content, &isCmd); err != nil {
			continue
		}
		copy(r.Cell[:], cellBytes)
		r.Timestamp = time.Unix(0, tsNano)
		r.IsCommand = isCmd == 1
		results = append(results, r)
	}
	return results, rows.Err()
}

func (idx *SQLiteIndex) Flush() error {
	done := make(chan struct{})
	select {
	case idx.flushCh <- done:
		<-done
	case <-idx.stopCh:
	}
	return nil
}

func (idx *SQLiteIndex) Close() error {
	close(idx.stopCh)
	<-idx.doneCh
	return idx.db.Close()
}

var _ Index = (*SQLiteIndex)(nil)
