package txlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// schema is created on startup by EnsureSchema.  One row per (user, order);
// the full record is kept as JSON since the portal only ever reads it back
// whole.
const schema = `CREATE TABLE IF NOT EXISTS portal_transactions (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  user_id BIGINT NOT NULL,
  order_id VARCHAR(191) NOT NULL,
  payload JSON NOT NULL,
  created_at DATETIME(6) NOT NULL,
  UNIQUE KEY uq_portal_tx_user_order (user_id, order_id),
  KEY idx_portal_tx_user_created (user_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// MySQLStore keeps transaction records in MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a store over an open database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// EnsureSchema creates the transaction table when missing.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create portal_transactions: %w", err)
	}
	return nil
}

func (s *MySQLStore) Append(ctx context.Context, userID int64, tx model.Transaction) error {
	return upsert(ctx, s.db, userID, tx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, userID int64, tx model.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	created := tx.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO portal_transactions (user_id, order_id, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE payload = VALUES(payload), created_at = VALUES(created_at)`,
		userID, tx.OrderID, payload, created.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *MySQLStore) List(ctx context.Context, userID int64) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM portal_transactions
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	out := make([]model.Transaction, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		var tx model.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			continue
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *MySQLStore) Replace(ctx context.Context, userID int64, txs []model.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbtx.Rollback()
		}
	}()
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM portal_transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, tx := range newestFirst(txs) {
		if err := upsert(ctx, dbtx, userID, tx); err != nil {
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
