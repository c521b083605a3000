package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PageCursor resumes a (created_at desc, id desc) listing after the given row.
type PageCursor struct {
	CreatedAt time.Time
	ID        snowflake.ID
}

type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	Insert(ctx context.Context, profile *ReportProfile) error
	FindByID(ctx context.Context, id snowflake.ID) (*ReportProfile, error)
	FindDefault(ctx context.Context) (*ReportProfile, error)
	// List returns up to limit rows after cursor; a nil cursor starts from the newest.
	List(ctx context.Context, cursor *PageCursor, limit int) ([]*ReportProfile, error)
	Update(ctx context.Context, id snowflake.ID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id snowflake.ID) (int64, error)
	// CodeTaken reports whether a profile other than self uses code.
	CodeTaken(ctx context.Context, code string, self snowflake.ID) (bool, error)
	// ClearDefaults unflags every default profile other than keep.
	ClearDefaults(ctx context.Context, keep snowflake.ID) error
}
