package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"schoolkr/internal/region"
	"schoolkr/pkg/school"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Store exports fetched portal data into a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at `path` and applies the schema.
func Open(ctx context.Context, path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(database), nil
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func (s Store) Close() error {
	return s.db.Close()
}

// SaveRecords replaces the stored results of a previous search with the same query.
func (s Store) SaveRecords(ctx context.Context, id region.ID, query string, records []school.Record, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		"delete from search_result where region = ? and query = ?",
		id.String(), query,
	)
	if err != nil {
		return err
	}
	for _, r := range records {
		_, err = tx.ExecContext(
			ctx,
			`insert into search_result(region, query, name, school_code, address, fetched_at)
			values (?, ?, ?, ?, ?, ?)`,
			id.String(), query, r.Name, r.SchoolCode, r.Address, at.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Records returns every stored search result of a region ordered by name.
func (s Store) Records(ctx context.Context, id region.ID) ([]school.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select distinct name, school_code, address from search_result
		where region = ? order by name, school_code`,
		id.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []school.Record
	for rows.Next() {
		var r school.Record
		err = rows.Scan(&r.Name, &r.SchoolCode, &r.Address)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Month identifies the meal or calendar list of a school for a month.
type Month struct {
	Region     region.ID
	SchoolCode string
	Kind       region.Kind
	Year       int
	Month      time.Month
}

// SaveEntries replaces the stored entries of a month.
func (s Store) SaveEntries(ctx context.Context, m Month, entries []school.Entry, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`delete from schedule_entry
		where region = ? and school_code = ? and kind = ? and year = ? and month = ?`,
		m.Region.String(), m.SchoolCode, m.Kind.String(), m.Year, int(m.Month),
	)
	if err != nil {
		return err
	}
	for i, e := range entries {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", i, err)
		}
		_, err = tx.ExecContext(
			ctx,
			`insert into schedule_entry(region, school_code, kind, year, month, position, body, fetched_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Region.String(), m.SchoolCode, m.Kind.String(), m.Year, int(m.Month), i, string(body), at.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Entries returns the stored entries of a month in the order they were saved.
func (s Store) Entries(ctx context.Context, m Month) ([]school.Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select body from schedule_entry
		where region = ? and school_code = ? and kind = ? and year = ? and month = ?
		order by position`,
		m.Region.String(), m.SchoolCode, m.Kind.String(), m.Year, int(m.Month),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []school.Entry
	for rows.Next() {
		var body string
		err = rows.Scan(&body)
		if err != nil {
			return nil, err
		}
		var e school.Entry
		err = json.Unmarshal([]byte(body), &e)
		if err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
