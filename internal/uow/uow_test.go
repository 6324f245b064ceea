package uow

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubUsers struct {
	UserRepository
	tx *gorm.DB
}

func (s *stubUsers) WithTx(tx *gorm.DB) UserRepository { s.tx = tx; return s }

type stubRoles struct{ RoleRepository }

func (s *stubRoles) WithTx(tx *gorm.DB) RoleRepository { return s }

type stubCategories struct{ CategoryRepository }

func (s *stubCategories) WithTx(tx *gorm.DB) CategoryRepository { return s }

type stubProducts struct{ ProductRepository }

func (s *stubProducts) WithTx(tx *gorm.DB) ProductRepository { return s }

type stubCarts struct{ CartRepository }

func (s *stubCarts) WithTx(tx *gorm.DB) CartRepository { return s }

type stubOrders struct{ OrderRepository }

func (s *stubOrders) WithTx(tx *gorm.DB) OrderRepository { return s }

type stubReviews struct{ ReviewRepository }

func (s *stubReviews) WithTx(tx *gorm.DB) ReviewRepository { return s }

type stubInventory struct{ InventoryRepository }

func (s *stubInventory) WithTx(tx *gorm.DB) InventoryRepository { return s }

type stubWarehouses struct{ WarehouseRepository }

func (s *stubWarehouses) WithTx(tx *gorm.DB) WarehouseRepository { return s }

type stubNotifications struct{ NotificationRepository }

func (s *stubNotifications) WithTx(tx *gorm.DB) NotificationRepository { return s }

type stubPayments struct{ PaymentRepository }

func (s *stubPayments) WithTx(tx *gorm.DB) PaymentRepository { return s }

type stubOutbox struct{ OutboxEmitter }

type fakeDB struct {
	db        *gorm.DB
	rollbacks int
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := fn(f.db)
	if err != nil {
		f.rollbacks++
	}
	return err
}

func newTestBase() *UnitOfWork {
	return &UnitOfWork{
		Users:         &stubUsers{},
		Roles:         &stubRoles{},
		Categories:    &stubCategories{},
		Products:      &stubProducts{},
		Carts:         &stubCarts{},
		Orders:        &stubOrders{},
		Reviews:       &stubReviews{},
		Inventory:     &stubInventory{},
		Warehouses:    &stubWarehouses{},
		Notifications: &stubNotifications{},
		Payments:      &stubPayments{},
		Outbox:        &stubOutbox{},
	}
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestNewRunnerRejectsMissingRepository(t *testing.T) {
	base := newTestBase()
	base.Payments = nil
	if _, err := NewRunner(&fakeDB{}, base); err == nil {
		t.Fatal("expected error for missing payments repository")
	}
	if _, err := NewRunner(nil, newTestBase()); err == nil {
		t.Fatal("expected error for nil database client")
	}
}

func TestRunBindsEveryRepositoryToTheTransaction(t *testing.T) {
	base := newTestBase()
	users := base.Users.(*stubUsers)
	db := newSQLiteDB(t)

	runner, err := NewRunner(&fakeDB{db: db}, base)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var seen *UnitOfWork
	err = runner.Run(context.Background(), func(u *UnitOfWork) error {
		seen = u
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen == nil || seen.Tx != db {
		t.Fatal("expected bound unit of work carrying the transaction handle")
	}
	if users.tx != db {
		t.Fatal("expected users repository bound to the transaction")
	}
	if seen == base {
		t.Fatal("expected a fresh bound unit of work, not the base")
	}
}

func TestRunPropagatesCallbackError(t *testing.T) {
	db := &fakeDB{db: newSQLiteDB(t)}
	runner, err := NewRunner(db, newTestBase())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	boom := errors.New("boom")
	if got := runner.Run(context.Background(), func(u *UnitOfWork) error { return boom }); !errors.Is(got, boom) {
		t.Fatalf("expected callback error, got %v", got)
	}
	if db.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", db.rollbacks)
	}
}
