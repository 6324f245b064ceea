package uow

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// UnitOfWork exposes every repository bound to a single database session.
// Inside Runner.Run all repositories share one transaction; the zero-tx form
// built by NewUnitOfWork reads through the connection pool.
type UnitOfWork struct {
	Users         UserRepository
	Roles         RoleRepository
	Categories    CategoryRepository
	Products      ProductRepository
	Carts         CartRepository
	Orders        OrderRepository
	Reviews       ReviewRepository
	Inventory     InventoryRepository
	Warehouses    WarehouseRepository
	Notifications NotificationRepository
	Payments      PaymentRepository
	Outbox        OutboxEmitter

	// Tx is the transaction handle inside Runner.Run, nil otherwise. It is
	// carried explicitly so callers can hand it to the outbox emitter.
	Tx *gorm.DB
}

func (u *UnitOfWork) validate() error {
	switch {
	case u.Users == nil:
		return errors.New("users repository required")
	case u.Roles == nil:
		return errors.New("roles repository required")
	case u.Categories == nil:
		return errors.New("categories repository required")
	case u.Products == nil:
		return errors.New("products repository required")
	case u.Carts == nil:
		return errors.New("carts repository required")
	case u.Orders == nil:
		return errors.New("orders repository required")
	case u.Reviews == nil:
		return errors.New("reviews repository required")
	case u.Inventory == nil:
		return errors.New("inventory repository required")
	case u.Warehouses == nil:
		return errors.New("warehouses repository required")
	case u.Notifications == nil:
		return errors.New("notifications repository required")
	case u.Payments == nil:
		return errors.New("payments repository required")
	case u.Outbox == nil:
		return errors.New("outbox emitter required")
	}
	return nil
}

func (u *UnitOfWork) bind(tx *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		Users:         u.Users.WithTx(tx),
		Roles:         u.Roles.WithTx(tx),
		Categories:    u.Categories.WithTx(tx),
		Products:      u.Products.WithTx(tx),
		Carts:         u.Carts.WithTx(tx),
		Orders:        u.Orders.WithTx(tx),
		Reviews:       u.Reviews.WithTx(tx),
		Inventory:     u.Inventory.WithTx(tx),
		Warehouses:    u.Warehouses.WithTx(tx),
		Notifications: u.Notifications.WithTx(tx),
		Payments:      u.Payments.WithTx(tx),
		Outbox:        u.Outbox,
		Tx:            tx,
	}
}

type txBeginner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Runner opens one transaction per Run call and hands the callback a
// UnitOfWork whose repositories all ride that transaction. Commit on nil
// return, rollback otherwise; panics roll back and re-panic.
type Runner struct {
	db   txBeginner
	base *UnitOfWork
}

// NewRunner validates the repository set and builds a Runner.
func NewRunner(db txBeginner, base *UnitOfWork) (*Runner, error) {
	if db == nil {
		return nil, errors.New("database client required")
	}
	if base == nil {
		return nil, errors.New("unit of work required")
	}
	if err := base.validate(); err != nil {
		return nil, err
	}
	return &Runner{db: db, base: base}, nil
}

// Run executes fn inside a single transaction.
func (r *Runner) Run(ctx context.Context, fn func(u *UnitOfWork) error) error {
	if fn == nil {
		return errors.New("callback required")
	}
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(r.base.bind(tx))
	})
}

// Repos returns the unbound repository set for reads that do not need a
// transaction.
func (r *Runner) Repos() *UnitOfWork {
	return r.base
}
