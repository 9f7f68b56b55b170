package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pricebook/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  fileType TEXT NOT NULL,
  month TEXT NOT NULL,
  year INTEGER NOT NULL,
  path TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'uploaded',
  extractedJson TEXT,
  isActive INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(fileType, month, year, hash)
);
CREATE INDEX IF NOT EXISTS idx_documents_period ON documents(month, year);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(fileType);

CREATE TABLE IF NOT EXISTS cross_references (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL,
  gailGrade TEXT NOT NULL,
  competitorName TEXT NOT NULL,
  competitorGrade TEXT NOT NULL,
  location TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(documentId, gailGrade, competitorName, competitorGrade),
  FOREIGN KEY(documentId) REFERENCES documents(id)
);
CREATE INDEX IF NOT EXISTS idx_crossref_grade ON cross_references(gailGrade, competitorName);
CREATE INDEX IF NOT EXISTS idx_crossref_competitor ON cross_references(competitorName, competitorGrade);

CREATE TABLE IF NOT EXISTS mails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  documentId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertDocument(fileType internal.DocumentType, month string, year int, path, hash, status string) (internal.DocumentRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO documents (fileType, month, year, path, hash, status)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(fileType, month, year, hash) DO UPDATE SET
  path=excluded.path,
  status=excluded.status,
  updatedAt=CURRENT_TIMESTAMP
`, string(fileType), month, year, path, hash, status)
	if err != nil {
		return internal.DocumentRow{}, err
	}

	var row internal.DocumentRow
	err = d.conn.QueryRow(`
SELECT id, fileType, month, year, path, hash, status, extractedJson, isActive
FROM documents WHERE fileType = ? AND month = ? AND year = ? AND hash = ?
`, string(fileType), month, year, hash).Scan(
		&row.ID, &row.FileType, &row.Month, &row.Year, &row.Path, &row.Hash, &row.Status, &row.Extracted, &row.IsActive,
	)
	if err != nil {
		return internal.DocumentRow{}, err
	}
	return row, nil
}

func (d *DB) GetDocumentByID(id int) (*internal.DocumentRow, error) {
	var row internal.DocumentRow
	err := d.conn.QueryRow(`
SELECT id, fileType, month, year, path, hash, status, extractedJson, isActive
FROM documents WHERE id = ?
`, id).Scan(
		&row.ID, &row.FileType, &row.Month, &row.Year, &row.Path, &row.Hash, &row.Status, &row.Extracted, &row.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListDocumentsByStatus(status string, limit int) ([]internal.DocumentRow, error) {
	return d.listDocuments(`
SELECT id, fileType, month, year, path, hash, status, extractedJson, isActive
FROM documents WHERE status = ? ORDER BY id LIMIT ?
`, status, limit)
}

// ListDocumentsByPeriod returns all documents of one pricing period, the
// sibling set the freight-attachment trigger inspects.
func (d *DB) ListDocumentsByPeriod(month string, year int) ([]internal.DocumentRow, error) {
	return d.listDocuments(`
SELECT id, fileType, month, year, path, hash, status, extractedJson, isActive
FROM documents WHERE month = ? AND year = ? ORDER BY id
`, month, year)
}

func (d *DB) listDocuments(query string, args ...any) ([]internal.DocumentRow, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DocumentRow
	for rows.Next() {
		var row internal.DocumentRow
		if err := rows.Scan(
			&row.ID, &row.FileType, &row.Month, &row.Year, &row.Path, &row.Hash, &row.Status, &row.Extracted, &row.IsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetDocumentExtracted stores the derived JSON wholesale; re-extraction
// always replaces, never patches.
func (d *DB) SetDocumentExtracted(id int, extracted any, status string) error {
	blob, err := json.Marshal(extracted)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
UPDATE documents SET extractedJson = ?, status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, string(blob), status, id)
	return err
}

func (d *DB) SetDocumentStatus(id int, status string) error {
	_, err := d.conn.Exec(`
UPDATE documents SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, status, id)
	return err
}

// ActivateCrossReference makes one cross-reference document the active one
// and deactivates every sibling of the same type in the same transaction.
func (d *DB) ActivateCrossReference(id int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
UPDATE documents SET isActive = 0, updatedAt = CURRENT_TIMESTAMP
WHERE fileType = ? AND isActive = 1 AND id != ?
`, string(internal.DocCrossReference), id); err != nil {
		return err
	}
	if _, err := tx.Exec(`
UPDATE documents SET isActive = 1, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ActiveCrossReferenceDocument returns the single active cross-reference
// document, or nil when none has been activated yet.
func (d *DB) ActiveCrossReferenceDocument() (*internal.DocumentRow, error) {
	var row internal.DocumentRow
	err := d.conn.QueryRow(`
SELECT id, fileType, month, year, path, hash, status, extractedJson, isActive
FROM documents WHERE fileType = ? AND isActive = 1 ORDER BY id DESC LIMIT 1
`, string(internal.DocCrossReference)).Scan(
		&row.ID, &row.FileType, &row.Month, &row.Year, &row.Path, &row.Hash, &row.Status, &row.Extracted, &row.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ReplaceCrossReferenceRecords swaps a document's flattened mapping rows
// wholesale inside one transaction.
func (d *DB) ReplaceCrossReferenceRecords(documentID int, records []internal.CrossReferenceRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM cross_references WHERE documentId = ?`, documentID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO cross_references (documentId, gailGrade, competitorName, competitorGrade, location)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(documentId, gailGrade, competitorName, competitorGrade) DO NOTHING
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		var location *string
		if rec.Location != "" {
			location = &rec.Location
		}
		if _, err := stmt.Exec(documentID, rec.GailGrade, rec.CompetitorName, rec.CompetitorGrade, location); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListCrossReferenceRecords(documentID int) ([]internal.CrossReferenceRecord, error) {
	rows, err := d.conn.Query(`
SELECT gailGrade, competitorName, competitorGrade, COALESCE(location, '')
FROM cross_references WHERE documentId = ? ORDER BY gailGrade, competitorName, competitorGrade
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CrossReferenceRecord
	for rows.Next() {
		var rec internal.CrossReferenceRecord
		if err := rows.Scan(&rec.GailGrade, &rec.CompetitorName, &rec.CompetitorGrade, &rec.Location); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) UpsertMail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.MailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO mails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.MailRow{}, err
	}

	var row internal.MailRow
	err = d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if err != nil {
		return internal.MailRow{}, err
	}
	return row, nil
}

// GetMailByMessageID returns the stored row for a provider message id, nil
// when the message has never been fetched.
func (d *DB) GetMailByMessageID(provider, messageID string) (*internal.MailRow, error) {
	var row internal.MailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListMailsByStatus(status string, limit int) ([]internal.MailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mails WHERE status = ? ORDER BY id LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailRow
	for rows.Next() {
		var row internal.MailRow
		if err := rows.Scan(
			&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateMailStatus(mailID int, status string) error {
	_, err := d.conn.Exec(`
UPDATE mails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, status, mailID)
	return err
}

func (d *DB) InsertRun(traceID string, documentID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, documentId, timingsJson, countsJson) VALUES (?, ?, ?, ?)
`, traceID, documentID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
