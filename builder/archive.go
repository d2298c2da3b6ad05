package builder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/docsmith/analyzer"
)

// Archive keeps a queryable history of documentation runs in SQLite,
// alongside the flat Markdown output. Unlike documentation.json it survives
// output-directory wipes and can answer per-file history questions.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive database at dbPath.
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file_docs (
		path TEXT PRIMARY KEY,
		documented_at TIMESTAMP,
		line_count INTEGER,
		complexity INTEGER,
		class_count INTEGER,
		function_count INTEGER,
		documentation TEXT,
		analysis TEXT
	);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Put upserts one file's documentation record.
func (a *Archive) Put(doc *FileDoc) error {
	if doc == nil {
		return errors.New("doc required")
	}
	var analysisJSON []byte
	var lineCount, complexity, classCount, functionCount int
	if doc.Analysis != nil {
		var err error
		analysisJSON, err = json.Marshal(doc.Analysis)
		if err != nil {
			return err
		}
		lineCount = doc.Analysis.LinesOfCode
		complexity = doc.Analysis.Complexity
		classCount = len(doc.Analysis.Classes)
		functionCount = len(doc.Analysis.Functions)
	}
	ts := doc.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	query := `
	INSERT INTO file_docs (
		path, documented_at, line_count, complexity, class_count,
		function_count, documentation, analysis
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		documented_at=excluded.documented_at,
		line_count=excluded.line_count,
		complexity=excluded.complexity,
		class_count=excluded.class_count,
		function_count=excluded.function_count,
		documentation=excluded.documentation,
		analysis=excluded.analysis
	`
	_, err := a.db.Exec(query,
		doc.Path,
		ts,
		lineCount,
		complexity,
		classCount,
		functionCount,
		doc.Documentation,
		string(analysisJSON),
	)
	return err
}

// Get returns the archived record for a path, or sql.ErrNoRows.
func (a *Archive) Get(path string) (*FileDoc, error) {
	row := a.db.QueryRow(`SELECT path, documented_at, documentation, analysis
		FROM file_docs WHERE path = ?`, path)
	doc := &FileDoc{}
	var analysisJSON string
	if err := row.Scan(&doc.Path, &doc.Timestamp, &doc.Documentation, &analysisJSON); err != nil {
		return nil, err
	}
	if analysisJSON != "" {
		var rec analyzer.Record
		if err := json.Unmarshal([]byte(analysisJSON), &rec); err == nil {
			doc.Analysis = &rec
		}
	}
	return doc, nil
}

// Delete drops the archived record for a path.
func (a *Archive) Delete(path string) error {
	_, err := a.db.Exec(`DELETE FROM file_docs WHERE path = ?`, path)
	return err
}

// Paths lists archived paths in order.
func (a *Archive) Paths() ([]string, error) {
	rows, err := a.db.Query(`SELECT path FROM file_docs ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Count reports the number of archived files.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM file_docs`).Scan(&n)
	return n, err
}
