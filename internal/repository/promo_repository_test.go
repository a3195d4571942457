package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/experience-booking/internal/model"
)

var promoCols = []string{"id", "code", "discount_type", "discount_value", "max_uses", "current_uses", "active", "created_at"}

func TestPromoGetActiveByCodeUppercases(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM promos WHERE code = ").
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows(promoCols).AddRow(1, "SAVE10", "percentage", 10.0, 100, 3, true, time.Now()))

	p, err := NewPromoRepo(db).GetActiveByCode(context.Background(), "save10")
	if err != nil {
		t.Fatalf("GetActiveByCode: %v", err)
	}
	if p.DiscountType != model.DiscountPercentage || p.DiscountValue != 10 || p.CurrentUses != 3 {
		t.Errorf("unexpected promo %+v", p)
	}
}

func TestPromoGetActiveByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM promos").WillReturnRows(sqlmock.NewRows(promoCols))

	_, err = NewPromoRepo(db).GetActiveByCode(context.Background(), "NOPE")
	if !errors.Is(err, ErrPromoNotFound) {
		t.Fatalf("expected ErrPromoNotFound, got %v", err)
	}
}

func TestPromoGetActiveByCodeRejectsUnknownType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM promos").
		WillReturnRows(sqlmock.NewRows(promoCols).AddRow(2, "HALF", "bogof", 50.0, 10, 0, true, time.Now()))

	p, err := NewPromoRepo(db).GetActiveByCode(context.Background(), "HALF")
	if err == nil || errors.Is(err, ErrPromoNotFound) {
		t.Fatalf("expected an unknown type error, got promo %+v err %v", p, err)
	}
}

func TestPromoEnsureExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := NewPromoRepo(db)

	mock.ExpectExec("INSERT INTO promos").
		WithArgs("FLAT50", "flat", 50.0, 100, 0, true).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO promos").
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := &model.Promo{Code: "flat50", DiscountType: model.DiscountFlat, DiscountValue: 50, MaxUses: 100, Active: true}
	created, err := repo.EnsureExists(context.Background(), p)
	if err != nil || !created || p.ID != 7 {
		t.Fatalf("first insert: created=%v id=%d err=%v", created, p.ID, err)
	}
	created, err = repo.EnsureExists(context.Background(), p)
	if err != nil || created {
		t.Fatalf("second insert should be a no-op: created=%v err=%v", created, err)
	}
}
