package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bankist.app/internal/bank"
)

const uniqueViolation = "23505"

// Store is a Postgres-backed bank.Repository. Schema lives in internal/migrate.
type Store struct {
	db *sql.DB
}

var _ bank.Repository = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// readSnapshot runs fn in a read-only repeatable-read transaction so that an
// account and its movements come from the same snapshot.
func (s *Store) readSnapshot(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Find(ctx context.Context, username string) (bank.Account, error) {
	acc := bank.Account{Username: username}
	err := s.readSnapshot(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			select owner, pin, interest_rate, currency, locale
			from accounts where username=$1
		`, username).Scan(&acc.Owner, &acc.PIN, &acc.InterestRate, &acc.Currency, &acc.Locale)
		if errors.Is(err, sql.ErrNoRows) {
			return bank.ErrNotFound
		}
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			select id, amount, occurred_at
			from movements where username=$1
			order by seq asc
		`, username)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m bank.Movement
			if err := rows.Scan(&m.ID, &m.Amount, &m.Date); err != nil {
				return err
			}
			acc.Movements = append(acc.Movements, m)
		}
		return rows.Err()
	})
	if err != nil {
		return bank.Account{}, err
	}
	return acc, nil
}

func (s *Store) List(ctx context.Context) ([]bank.Account, error) {
	var out []bank.Account
	err := s.readSnapshot(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			select username, owner, pin, interest_rate, currency, locale
			from accounts order by position asc
		`)
		if err != nil {
			return err
		}
		index := map[string]int{}
		for rows.Next() {
			var acc bank.Account
			if err := rows.Scan(&acc.Username, &acc.Owner, &acc.PIN, &acc.InterestRate, &acc.Currency, &acc.Locale); err != nil {
				rows.Close()
				return err
			}
			index[acc.Username] = len(out)
			out = append(out, acc)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		mrows, err := tx.QueryContext(ctx, `
			select username, id, amount, occurred_at
			from movements order by seq asc
		`)
		if err != nil {
			return err
		}
		defer mrows.Close()
		for mrows.Next() {
			var username string
			var m bank.Movement
			if err := mrows.Scan(&username, &m.ID, &m.Amount, &m.Date); err != nil {
				return err
			}
			if i, ok := index[username]; ok {
				out[i].Movements = append(out[i].Movements, m)
			}
		}
		return mrows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, acc bank.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		insert into accounts(username, owner, pin, interest_rate, currency, locale)
		values ($1,$2,$3,$4,$5,$6)
	`, acc.Username, acc.Owner, acc.PIN, acc.InterestRate, acc.Currency, acc.Locale)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return bank.ErrDuplicateUsername
		}
		return err
	}
	for _, m := range acc.Movements {
		if err := insertMovement(ctx, tx, acc.Username, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) RemoveByKey(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where username=$1`, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) Post(ctx context.Context, entries ...bank.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock accounts in stable order to avoid deadlocks
	for _, username := range lockOrder(entries) {
		var dummy int
		err := tx.QueryRowContext(ctx, `select 1 from accounts where username=$1 for update`, username).Scan(&dummy)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("post to %q: %w", username, bank.ErrNotFound)
		}
		if err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := insertMovement(ctx, tx, e.Username, e.Movement); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Seed appends accounts that are not stored yet and reports how many were added.
func (s *Store) Seed(ctx context.Context, accounts []bank.Account) (int, error) {
	added := 0
	for _, acc := range accounts {
		err := s.Append(ctx, acc)
		if errors.Is(err, bank.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("seed %q: %w", acc.Username, err)
		}
		added++
	}
	return added, nil
}

// Ping satisfies the readiness probe.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func insertMovement(ctx context.Context, tx *sql.Tx, username string, m bank.Movement) error {
	_, err := tx.ExecContext(ctx, `
		insert into movements(id, username, amount, occurred_at)
		values ($1,$2,$3,$4)
	`, m.ID, username, m.Amount, m.Date.UTC())
	return err
}

func lockOrder(entries []bank.Entry) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.Username]; ok {
			continue
		}
		seen[e.Username] = struct{}{}
		out = append(out, e.Username)
	}
	sort.Strings(out)
	return out
}
