package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the stores that take part in one workflow transaction.
type Repositories struct {
	Appraisals AppraisalRepository
	Scores     AppraisalScoreRepository
	History    ApprovalHistoryRepository
}

// NewRepositories binds every workflow store to the same handle.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Appraisals: NewAppraisalRepository(db),
		Scores:     NewAppraisalScoreRepository(db),
		History:    NewApprovalHistoryRepository(db),
	}
}

// Transactor runs a unit of work against transaction-bound repositories.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a transactor backed by gorm.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}
