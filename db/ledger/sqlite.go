// Package ledger keeps a history of issued quotations in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"mixquote/core/quote"
	"mixquote/core/types"
	"mixquote/internal/errors"
)

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one row of the quote history
type Entry struct {
	ID            string              `json:"id"`
	IssuedAt      time.Time           `json:"issued_at"`
	ClientName    string              `json:"client_name"`
	Product       types.Product       `json:"product"`
	Modality      types.Modality      `json:"modality"`
	Currency      types.Currency      `json:"currency"`
	QuantityM3    decimal.Decimal     `json:"quantity_m3"`
	BasePrice     decimal.NullDecimal `json:"base_price_excl_tax"`
	NeedsApproval bool                `json:"needs_approval"`
	PriceList     string              `json:"price_list,omitempty"`
	Fingerprint   string              `json:"unit_cost_fingerprint,omitempty"`
}

// Ledger implements quote history using modernc.org/sqlite.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Internal("ledger: create directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Internal("ledger: open", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Internal(fmt.Sprintf("ledger: exec %s", pragma), err)
		}
	}
	l := &Ledger{db: db}
	if err := l.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS quotations (
	id             TEXT PRIMARY KEY,
	issued_at      TEXT NOT NULL,
	client_name    TEXT NOT NULL,
	product        TEXT NOT NULL,
	modality       TEXT NOT NULL,
	currency       TEXT NOT NULL,
	quantity_m3    TEXT NOT NULL,
	base_price     TEXT,
	needs_approval INTEGER NOT NULL DEFAULT 0,
	price_list     TEXT NOT NULL DEFAULT '',
	fingerprint    TEXT NOT NULL DEFAULT '',
	payload        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotations_issued_at ON quotations(issued_at);
`

func (l *Ledger) migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, migration); err != nil {
		return errors.Internal("ledger: migrate", err)
	}
	return nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a quotation
func (l *Ledger) Record(ctx context.Context, q *quote.Quotation) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return errors.Internal("ledger: marshal quotation", err)
	}

	var basePrice sql.NullString
	if alt, ok := q.Alternative(types.AlternativeBase); ok && alt.PriceExclTax.Valid {
		basePrice = sql.NullString{String: alt.PriceExclTax.Decimal.String(), Valid: true}
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO quotations (id, issued_at, client_name, product, modality, currency,
			quantity_m3, base_price, needs_approval, price_list, fingerprint, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.IssuedAt.UTC().Format(timeLayout), q.Request.ClientName,
		string(q.Request.Product), string(q.Request.Modality), string(q.Request.Currency),
		q.Request.QuantityM3.String(), basePrice, q.NeedsApproval(),
		q.PriceList, q.Fingerprint, string(payload),
	)
	if err != nil {
		return errors.Internal(fmt.Sprintf("ledger: insert quotation %s", q.ID), err)
	}
	return nil
}

// List returns the most recent entries first; limit <= 0 means all
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, issued_at, client_name, product, modality, currency,
		quantity_m3, base_price, needs_approval, price_list, fingerprint
		FROM quotations ORDER BY issued_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Internal("ledger: list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                       Entry
			issuedAt, quantity      string
			product, modality, curr string
			basePrice               sql.NullString
		)
		if err := rows.Scan(&e.ID, &issuedAt, &e.ClientName, &product, &modality, &curr,
			&quantity, &basePrice, &e.NeedsApproval, &e.PriceList, &e.Fingerprint); err != nil {
			return nil, errors.Internal("ledger: scan", err)
		}
		e.Product = types.Product(product)
		e.Modality = types.Modality(modality)
		e.Currency = types.Currency(curr)

		if e.IssuedAt, err = time.Parse(timeLayout, issuedAt); err != nil {
			return nil, errors.Parsing("ledger: issued_at", err)
		}
		if e.QuantityM3, err = decimal.NewFromString(quantity); err != nil {
			return nil, errors.Parsing("ledger: quantity_m3", err)
		}
		if basePrice.Valid {
			d, err := decimal.NewFromString(basePrice.String)
			if err != nil {
				return nil, errors.Parsing("ledger: base_price", err)
			}
			e.BasePrice = types.Price(d)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("ledger: list", err)
	}
	return entries, nil
}

// Get returns a stored quotation
func (l *Ledger) Get(ctx context.Context, id string) (*quote.Quotation, error) {
	var payload string
	err := l.db.QueryRowContext(ctx, `SELECT payload FROM quotations WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("quotation", id)
	}
	if err != nil {
		return nil, errors.Internal("ledger: get", err)
	}

	var q quote.Quotation
	if err := json.Unmarshal([]byte(payload), &q); err != nil {
		return nil, errors.Parsing("ledger: quotation payload", err)
	}
	return &q, nil
}
