// Package sqlstore implements common.ContractStore on SQLite through
// database/sql. The schema is managed by embedded goose migrations and
// analytical queries run as SQL aggregates, so the relational engine
// does the work the key-value backend has to do in process.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/veilmark/soulbench/common"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driver = "sqlite"

// goose configuration is package-global; set it exactly once so
// concurrent Opens do not race.
var (
	gooseOnce sync.Once
	gooseErr  error
)

// memSeq names in-memory databases so every Open("") gets its own.
var memSeq atomic.Int64

// Store is a ContractStore backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating and migrating it if
// needed. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driver, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}

	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationsFS)
		gooseErr = goose.SetDialect(driver)
	})
	if gooseErr != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: set goose dialect: %w", gooseErr)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	// Named per-open in-memory databases stay isolated from each
	// other; cache=shared keeps the pool's connections on one database.
	if path == "" {
		return fmt.Sprintf("file:soulbench-mem-%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	values := url.Values{}
	values.Add("_pragma", "foreign_keys(ON)")
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	values.Add("_pragma", "temp_store(MEMORY)")

	return fmt.Sprintf("file:%s?%s", path, values.Encode())
}

func (s *Store) Create(ctx context.Context, c common.SoulContract) error {
	if c.ID == "" {
		return common.ErrEmptyID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (id, soul_name, holder_name, clause, price, status, signed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SoulName, c.HolderName, c.Clause, c.Price, string(c.Status),
		c.SignedAt.UTC().Format(time.RFC3339Nano),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return common.ErrContractExists
		}
		return fmt.Errorf("sqlstore: insert contract %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (common.SoulContract, error) {
	if id == "" {
		return common.SoulContract{}, common.ErrEmptyID
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, soul_name, holder_name, clause, price, status, signed_at, updated_at
		FROM contracts WHERE id = ?`, id)
	return scanContract(row)
}

func (s *Store) Update(ctx context.Context, c common.SoulContract) error {
	if c.ID == "" {
		return common.ErrEmptyID
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE contracts
		SET soul_name = ?, holder_name = ?, clause = ?, price = ?, status = ?, signed_at = ?, updated_at = ?
		WHERE id = ?`,
		c.SoulName, c.HolderName, c.Clause, c.Price, string(c.Status),
		c.SignedAt.UTC().Format(time.RFC3339Nano),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: update contract %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrContractNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrEmptyID
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete contract %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrContractNotFound
	}
	return nil
}

func (s *Store) ListByHolder(ctx context.Context, holder string) ([]common.SoulContract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, soul_name, holder_name, clause, price, status, signed_at, updated_at
		FROM contracts WHERE holder_name = ? ORDER BY id`, holder)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list by holder %s: %w", holder, err)
	}
	defer rows.Close()

	var out []common.SoulContract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) TotalsByStatus(ctx context.Context) ([]common.StatusTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*), SUM(price)
		FROM contracts GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: totals by status: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[common.ContractStatus]common.StatusTotal)
	for rows.Next() {
		var (
			status string
			count  int64
			total  float64
		)
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, err
		}
		byStatus[common.ContractStatus(status)] = common.StatusTotal{
			Status:     common.ContractStatus(status),
			Count:      count,
			TotalPrice: total,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stable output order, matching the kvstore backend.
	out := make([]common.StatusTotal, 0, len(byStatus))
	for _, status := range common.Statuses() {
		if row, ok := byStatus[status]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: count contracts: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (common.SoulContract, error) {
	var (
		c        common.SoulContract
		status   string
		signed   string
		updated  string
		scanErr  error
		parseErr error
	)

	scanErr = row.Scan(&c.ID, &c.SoulName, &c.HolderName, &c.Clause, &c.Price, &status, &signed, &updated)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return c, common.ErrContractNotFound
	}
	if scanErr != nil {
		return c, scanErr
	}

	c.Status = common.ContractStatus(status)
	if c.SignedAt, parseErr = time.Parse(time.RFC3339Nano, signed); parseErr != nil {
		return c, fmt.Errorf("sqlstore: parse signed_at: %w", parseErr)
	}
	if c.UpdatedAt, parseErr = time.Parse(time.RFC3339Nano, updated); parseErr != nil {
		return c, fmt.Errorf("sqlstore: parse updated_at: %w", parseErr)
	}
	return c, nil
}
