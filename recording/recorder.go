// Package recording stores simulation results in a SQLite database. Rows are
// buffered in memory and written in batches inside a transaction.
package recording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultBatchSize is the number of buffered rows that triggers a flush.
const DefaultBatchSize = 100000

type table struct {
	columns []string
	entries []any
}

// Recorder writes struct rows into SQLite tables. It is safe for concurrent
// use.
type Recorder struct {
	mu sync.Mutex

	db        *sql.DB
	filename  string
	batchSize int
	tables    map[string]*table
	order     []string
	pending   int
}

// DefaultFilename returns a fresh, unique database file name.
func DefaultFilename() string {
	return "bpsim_" + xid.New().String() + ".sqlite3"
}

// New creates a database file and a Recorder writing into it. An empty
// filename selects DefaultFilename. The file must not exist yet. Buffered
// rows are flushed when the program exits through atexit.
func New(filename string) (*Recorder, error) {
	if filename == "" {
		filename = DefaultFilename()
	}

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", filename, err)
	}

	r := &Recorder{
		db:        db,
		filename:  filename,
		batchSize: DefaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Filename returns the path of the database file.
func (r *Recorder) Filename() string {
	return r.filename
}

// SetBatchSize changes the number of buffered rows that triggers a flush.
func (r *Recorder) SetBatchSize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n < 1 {
		n = 1
	}
	r.batchSize = n
}

// CreateTable creates a table whose columns are the exported fields of
// sampleEntry. Creating the same table twice is a no-op.
func (r *Recorder) CreateTable(tableName string, sampleEntry any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[tableName]; exists {
		return nil
	}

	if !structs.IsStruct(sampleEntry) {
		return fmt.Errorf("table %s: sample entry must be a struct", tableName)
	}

	columns := structs.Names(sampleEntry)
	stmt := `CREATE TABLE IF NOT EXISTS ` + tableName +
		` (` + "\n\t" + strings.Join(columns, ", \n\t") + "\n" + `);`
	if _, err := r.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	r.tables[tableName] = &table{columns: columns}
	r.order = append(r.order, tableName)

	return nil
}

// InsertData buffers an entry for a table created with CreateTable.
func (r *Recorder) InsertData(tableName string, entry any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tables[tableName]
	if !exists {
		return fmt.Errorf("table %s does not exist", tableName)
	}

	t.entries = append(t.entries, entry)

	r.pending++
	if r.pending >= r.batchSize {
		return r.flushLocked()
	}

	return nil
}

// ListTables returns the names of all created tables in creation order.
func (r *Recorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Flush writes all buffered entries to the database.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if r.pending == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, name := range r.order {
		t := r.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		if err := insertAll(tx, name, t); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, t := range r.tables {
		t.entries = nil
	}
	r.pending = 0

	return nil
}

func insertAll(tx *sql.Tx, name string, t *table) error {
	placeholders := make([]string, len(t.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := "INSERT INTO " + name + " VALUES (" + strings.Join(placeholders, ", ") + ")"
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", name, err)
		}
	}

	return nil
}

// Close flushes buffered entries and closes the database.
func (r *Recorder) Close() error {
	flushErr := r.Flush()
	return errors.Join(flushErr, r.db.Close())
}
