package option

import (
	"fmt"

	"gorm.io/gorm"
)

// QueryOption adjusts a query built by the generic repository.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// OrderBy sorts by column. Direction is "asc" or "desc".
func OrderBy(column, direction string) QueryOption {
	if direction != "desc" {
		direction = "asc"
	}
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(fmt.Sprintf("%s %s", column, direction))
	})
}

func Limit(n int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	})
}

// Where adds a raw condition.
func Where(query string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}
