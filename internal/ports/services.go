package ports

import (
	"context"
	"io"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// ReportService computes activation KPIs for upload sessions.
type ReportService interface {
	CreateSession(ctx context.Context, in domain.SessionInput) (*domain.SessionSummary, error)
	ReplaceSession(ctx context.Context, id string, in domain.SessionInput) (*domain.SessionSummary, error)
	GetSummary(ctx context.Context, id string) (*domain.SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error

	Aggregate(ctx context.Context, id string, q domain.AggregateQuery) ([]domain.AggregateRow, error)
	Pivot(ctx context.Context, id string, q domain.AggregateQuery, metric domain.Metric) (*domain.PivotTable, error)
	Export(ctx context.Context, id string, q domain.AggregateQuery, metrics []domain.Metric) ([]byte, error)
	Inactive(ctx context.Context, id string, q domain.InactiveQuery) ([]domain.InactiveOutlet, error)
	MultiOutlet(ctx context.Context, id string) ([]domain.MultiOutletScan, error)
}

// TableReader reads one sheet of an uploaded file. An empty sheet selects
// the default sheet for kind.
type TableReader interface {
	Read(name string, r io.Reader, sheet string, kind domain.TableKind) (*domain.Table, error)
}

// WorkbookEncoder renders a workbook into a spreadsheet file.
type WorkbookEncoder interface {
	Encode(wb *domain.Workbook) ([]byte, error)
}

// EventPublisher announces computed sessions.
type EventPublisher interface {
	PublishSessionComputed(ctx context.Context, ev domain.SessionEvent) error
}
