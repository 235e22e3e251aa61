package repository

import (
	"context"
	"fmt"

	"basementbot/database"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork bundles guild-scoped repositories behind a single
// transaction. Begin must be called before any repository accessor.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	FactoidRepository() *FactoidRepository
	GrabRepository() *GrabRepository
}

// UnitOfWorkFactory creates units of work scoped to a guild
type UnitOfWorkFactory interface {
	CreateForGuild(guildID string) UnitOfWork
}

type unitOfWork struct {
	db          *database.DB
	tx          pgx.Tx
	ctx         context.Context
	guildID     string
	factoidRepo *FactoidRepository
	grabRepo    *GrabRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// CreateForGuild creates a new UnitOfWork scoped to the given guild
func (f *unitOfWorkFactory) CreateForGuild(guildID string) UnitOfWork {
	return &unitOfWork{
		db:      f.db,
		guildID: guildID,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create guild-scoped repositories with the transaction
	u.factoidRepo = NewFactoidRepositoryScoped(tx, u.guildID)
	u.grabRepo = NewGrabRepositoryScoped(tx, u.guildID)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	if err := u.tx.Rollback(u.ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// FactoidRepository returns the factoid repository for this unit of work
func (u *unitOfWork) FactoidRepository() *FactoidRepository {
	if u.factoidRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.factoidRepo
}

// GrabRepository returns the grab repository for this unit of work
func (u *unitOfWork) GrabRepository() *GrabRepository {
	if u.grabRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.grabRepo
}
