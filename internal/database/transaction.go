package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn in a transaction. It commits when fn returns nil
// and rolls back otherwise, including when fn panics.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	if err := db.Session(ctx).Transaction(fn); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}
