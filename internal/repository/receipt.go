package repository

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ReceiptRecord represents a settled payment attempt in the audit log
type ReceiptRecord struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	Token         string    `json:"token,omitempty"`
	Outcome       string    `json:"outcome"`
	Channel       string    `json:"channel,omitempty"`
	Nominee       string    `json:"nominee,omitempty"`
	Category      string    `json:"category,omitempty"`
	Award         string    `json:"award,omitempty"`
	NumberOfVotes int       `json:"number_of_votes"`
	SettledAt     time.Time `json:"settled_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReceiptRepository handles database operations for settlement receipts
type ReceiptRepository struct {
	db *sql.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(dbPath string) (*ReceiptRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS receipts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reference TEXT NOT NULL UNIQUE,
			token TEXT,
			outcome TEXT NOT NULL,
			channel TEXT,
			nominee TEXT,
			category TEXT,
			award TEXT,
			number_of_votes INTEGER NOT NULL DEFAULT 0,
			settled_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_receipts_reference ON receipts(reference);
		CREATE INDEX IF NOT EXISTS idx_receipts_token ON receipts(token);
		CREATE INDEX IF NOT EXISTS idx_receipts_settled_at ON receipts(settled_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ReceiptRepository{db: db}, nil
}

// Close closes database connection
func (r *ReceiptRepository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection is alive
func (r *ReceiptRepository) Ping() error {
	return r.db.Ping()
}

// Save appends a settlement receipt. The reference is unique; recording the
// same settlement twice is an error surfaced to the caller.
func (r *ReceiptRepository) Save(record *ReceiptRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO receipts (reference, token, outcome, channel, nominee, category, award, number_of_votes, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.Reference, record.Token, record.Outcome, record.Channel,
		record.Nominee, record.Category, record.Award, record.NumberOfVotes, record.SettledAt)
	return err
}

// GetByReference gets a receipt by payment reference
func (r *ReceiptRepository) GetByReference(reference string) (*ReceiptRecord, error) {
	return r.getByColumn("reference", reference)
}

// GetByToken gets a receipt by callback token
func (r *ReceiptRepository) GetByToken(token string) (*ReceiptRecord, error) {
	return r.getByColumn("token", token)
}

func (r *ReceiptRepository) getByColumn(column, value string) (*ReceiptRecord, error) {
	var record ReceiptRecord
	err := r.db.QueryRow(`
		SELECT id, reference, token, outcome, channel, nominee, category, award, number_of_votes, settled_at, created_at
		FROM receipts
		WHERE `+column+` = ?
		LIMIT 1
	`, value).Scan(
		&record.ID,
		&record.Reference,
		&record.Token,
		&record.Outcome,
		&record.Channel,
		&record.Nominee,
		&record.Category,
		&record.Award,
		&record.NumberOfVotes,
		&record.SettledAt,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent returns the most recently settled receipts, newest first
func (r *ReceiptRepository) ListRecent(limit int) ([]ReceiptRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, reference, token, outcome, channel, nominee, category, award, number_of_votes, settled_at, created_at
		FROM receipts
		ORDER BY settled_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ReceiptRecord, 0, limit)
	for rows.Next() {
		var record ReceiptRecord
		if err := rows.Scan(
			&record.ID,
			&record.Reference,
			&record.Token,
			&record.Outcome,
			&record.Channel,
			&record.Nominee,
			&record.Category,
			&record.Award,
			&record.NumberOfVotes,
			&record.SettledAt,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns total stored receipts
func (r *ReceiptRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM receipts`).Scan(&count)
	return count, err
}
