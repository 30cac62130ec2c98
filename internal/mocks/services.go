package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// MockEventPublisher records published session events
type MockEventPublisher struct {
	mu          sync.Mutex
	Events      []domain.SessionEvent
	PublishFunc func(ctx context.Context, ev domain.SessionEvent) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) PublishSessionComputed(ctx context.Context, ev domain.SessionEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// MockWorkbookEncoder captures the last workbook it was asked to encode
type MockWorkbookEncoder struct {
	Last       *domain.Workbook
	EncodeFunc func(wb *domain.Workbook) ([]byte, error)
}

func (m *MockWorkbookEncoder) Encode(wb *domain.Workbook) ([]byte, error) {
	m.Last = wb
	if m.EncodeFunc != nil {
		return m.EncodeFunc(wb)
	}
	return []byte("xlsx"), nil
}

// MockTableReader returns canned tables per kind
type MockTableReader struct {
	Tables   map[domain.TableKind]*domain.Table
	ReadFunc func(name string, r io.Reader, sheet string, kind domain.TableKind) (*domain.Table, error)
}

func (m *MockTableReader) Read(name string, r io.Reader, sheet string, kind domain.TableKind) (*domain.Table, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(name, r, sheet, kind)
	}
	t := m.Tables[kind]
	if t == nil {
		return &domain.Table{Source: name}, nil
	}
	return t, nil
}

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	CreateSessionFunc  func(ctx context.Context, in domain.SessionInput) (*domain.SessionSummary, error)
	ReplaceSessionFunc func(ctx context.Context, id string, in domain.SessionInput) (*domain.SessionSummary, error)
	GetSummaryFunc     func(ctx context.Context, id string) (*domain.SessionSummary, error)
	DeleteSessionFunc  func(ctx context.Context, id string) error
	AggregateFunc      func(ctx context.Context, id string, q domain.AggregateQuery) ([]domain.AggregateRow, error)
	PivotFunc          func(ctx context.Context, id string, q domain.AggregateQuery, metric domain.Metric) (*domain.PivotTable, error)
	ExportFunc         func(ctx context.Context, id string, q domain.AggregateQuery, metrics []domain.Metric) ([]byte, error)
	InactiveFunc       func(ctx context.Context, id string, q domain.InactiveQuery) ([]domain.InactiveOutlet, error)
	MultiOutletFunc    func(ctx context.Context, id string) ([]domain.MultiOutletScan, error)
}

func (m *MockReportService) CreateSession(ctx context.Context, in domain.SessionInput) (*domain.SessionSummary, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, in)
	}
	return &domain.SessionSummary{ID: "session-1"}, nil
}

func (m *MockReportService) ReplaceSession(ctx context.Context, id string, in domain.SessionInput) (*domain.SessionSummary, error) {
	if m.ReplaceSessionFunc != nil {
		return m.ReplaceSessionFunc(ctx, id, in)
	}
	return &domain.SessionSummary{ID: id}, nil
}

func (m *MockReportService) GetSummary(ctx context.Context, id string) (*domain.SessionSummary, error) {
	if m.GetSummaryFunc != nil {
		return m.GetSummaryFunc(ctx, id)
	}
	return &domain.SessionSummary{ID: id}, nil
}

func (m *MockReportService) DeleteSession(ctx context.Context, id string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, id)
	}
	return nil
}

func (m *MockReportService) Aggregate(ctx context.Context, id string, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, id, q)
	}
	return []domain.AggregateRow{}, nil
}

func (m *MockReportService) Pivot(ctx context.Context, id string, q domain.AggregateQuery, metric domain.Metric) (*domain.PivotTable, error) {
	if m.PivotFunc != nil {
		return m.PivotFunc(ctx, id, q, metric)
	}
	return &domain.PivotTable{Dimensions: q.GroupBy, Metric: metric}, nil
}

func (m *MockReportService) Export(ctx context.Context, id string, q domain.AggregateQuery, metrics []domain.Metric) ([]byte, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, id, q, metrics)
	}
	return []byte{}, nil
}

func (m *MockReportService) Inactive(ctx context.Context, id string, q domain.InactiveQuery) ([]domain.InactiveOutlet, error) {
	if m.InactiveFunc != nil {
		return m.InactiveFunc(ctx, id, q)
	}
	return []domain.InactiveOutlet{}, nil
}

func (m *MockReportService) MultiOutlet(ctx context.Context, id string) ([]domain.MultiOutletScan, error) {
	if m.MultiOutletFunc != nil {
		return m.MultiOutletFunc(ctx, id)
	}
	return []domain.MultiOutletScan{}, nil
}
