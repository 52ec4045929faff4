package txlog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

func TestMySQLStoreAppendAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewMySQLStore(db)
	ctx := context.Background()
	rec := record("ORD-1", 90000, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	mock.ExpectExec(`INSERT INTO portal_transactions`).
		WithArgs(int64(7), "ORD-1", sqlmock.AnyArg(), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := s.Append(ctx, 7, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	payload, _ := json.Marshal(rec)
	mock.ExpectQuery(`SELECT payload FROM portal_transactions`).
		WithArgs(int64(7), MaxEntries).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload).AddRow([]byte("not json")))
	list, err := s.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].OrderID != "ORD-1" {
		t.Fatalf("list = %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLStoreReplaceIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewMySQLStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM portal_transactions`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO portal_transactions`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := s.Replace(context.Background(), 3, []model.Transaction{record("X", 1, time.Now())}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLEnsureSchema(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS portal_transactions`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := NewMySQLStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
}
