package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Драйвер SQLite без cgo.
	_ "modernc.org/sqlite"
)

// SQLiteRepository хранит доски в локальном файле SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository открывает базу по пути path и создаёт схему.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Один писатель: SQLite не поддерживает параллельную запись, а ":memory:" живёт в одном соединении.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	r := &SQLiteRepository{db: db, now: time.Now}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	migrations := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS boards (
			id         TEXT PRIMARY KEY,
			state      BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := r.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	return nil
}

// Close закрывает базу.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateBoard сохраняет новую доску с начальным состоянием.
func (r *SQLiteRepository) CreateBoard(ctx context.Context, id string, state []byte) error {
	now := r.now().UnixMilli()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boards (id, state, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id, state, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrBoardExists, id)
	}
	return nil
}

// LoadBoard возвращает доску по идентификатору.
func (r *SQLiteRepository) LoadBoard(ctx context.Context, id string) (*Board, error) {
	var (
		b                Board
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, state, created_at, updated_at FROM boards WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.State, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("select board: %w", err)
	}

	b.CreatedAt = time.UnixMilli(created).UTC()
	b.UpdatedAt = time.UnixMilli(updated).UTC()
	return &b, nil
}

// SaveBoard перезаписывает состояние существующей доски.
func (r *SQLiteRepository) SaveBoard(ctx context.Context, id string, state []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE boards SET state = ?, updated_at = ? WHERE id = ?`,
		state, r.now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return requireAffected(res)
}

// DeleteBoard удаляет доску.
func (r *SQLiteRepository) DeleteBoard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrBoardNotFound
	}
	return nil
}
