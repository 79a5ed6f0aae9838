package mysql

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate appends FOR UPDATE on dialects that support it. The sqlite
// test database serializes writers anyway, so skipping the clause there keeps
// the repositories testable in-memory without changing mysql behavior.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
