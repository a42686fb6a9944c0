package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"RetroStore/pkg/kit"
)

const (
	dbPingTimeout  = 1 * time.Second
	dbQueryTimeout = 3 * time.Second
	dbSaveTimeout  = 5 * time.Second
)

// PostgresReplicaStore keeps the replica in two tables: one row per product
// (json document plus position, preserving catalog order) and one flag row.
// SaveAll replaces the whole collection inside a single transaction.
type PostgresReplicaStore struct {
	db       *sql.DB
	notifier *kit.Notifier
}

func NewPostgresReplicaStore(db *sql.DB, notifier *kit.Notifier) *PostgresReplicaStore {
	return &PostgresReplicaStore{db: db, notifier: notifier}
}

func (s *PostgresReplicaStore) EnsureSchema(ctx context.Context) error {
	return dbWithTimeout(ctx, dbSaveTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS replica_products (
				id       TEXT PRIMARY KEY,
				doc      JSONB NOT NULL,
				position INT   NOT NULL
			);
			CREATE TABLE IF NOT EXISTS replica_state (
				name    TEXT PRIMARY KEY,
				enabled BOOLEAN NOT NULL
			);
		`)
		return err
	})
}

func (s *PostgresReplicaStore) LoadAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := dbWithTimeout(ctx, dbQueryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT doc
			FROM replica_products
			ORDER BY position ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			var p Product
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("decode replica row: %w", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		seed := DefaultCatalog()
		if err := s.SaveAll(ctx, seed); err != nil {
			return nil, err
		}
		return seed, nil
	}
	return out, nil
}

func (s *PostgresReplicaStore) SaveAll(ctx context.Context, products []Product) error {
	err := dbWithTimeout(ctx, dbSaveTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM replica_products`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO replica_products (id, doc, position)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range products {
			raw, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, p.ID, raw, i); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Publish(EventCatalogChanged)
	}
	return nil
}

func (s *PostgresReplicaStore) OfflineFlag(ctx context.Context) (bool, error) {
	var enabled bool
	err := dbWithTimeout(ctx, dbQueryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT enabled
			FROM replica_state
			WHERE name = 'offline'
		`).Scan(&enabled)
	})
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}

func (s *PostgresReplicaStore) SetOfflineFlag(ctx context.Context, offline bool) error {
	return dbWithTimeout(ctx, dbQueryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO replica_state (name, enabled)
			VALUES ('offline', $1)
			ON CONFLICT (name) DO UPDATE SET enabled = EXCLUDED.enabled
		`, offline)
		return err
	})
}

func (s *PostgresReplicaStore) Ping(ctx context.Context) error {
	return dbWithTimeout(ctx, dbPingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func dbWithTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
