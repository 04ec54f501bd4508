package emails

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, code string) (Template, error)
	CreateTemplate(ctx context.Context, in TemplateInput) (Template, error)
	UpdateTemplate(ctx context.Context, code string, in TemplateInput) (Template, error)
	DeleteTemplate(ctx context.Context, code string) error
	CreateLog(ctx context.Context, entry Log) (string, error)
	MarkLog(ctx context.Context, logID, status, errMsg string) error
	GetLog(ctx context.Context, logID string) (Log, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error)
	StaleQueued(ctx context.Context, olderThan time.Time, limit int) ([]Log, error)
}
