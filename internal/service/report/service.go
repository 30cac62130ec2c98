// Package report runs the KPI pipeline for upload sessions.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/observability/telemetry"
	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/internal/service/aggregate"
	"github.com/seu-repo/outlet-kpi/internal/service/anomaly"
	"github.com/seu-repo/outlet-kpi/internal/service/pivot"
	"github.com/seu-repo/outlet-kpi/internal/service/reconcile"
	"github.com/seu-repo/outlet-kpi/internal/service/schema"
	"github.com/seu-repo/outlet-kpi/internal/service/week"
)

// Parse error samples kept per session.
const maxParseErrorSamples = 20

// Options are the pipeline defaults.
type Options struct {
	Headers    schema.HeaderMap
	DayFirst   bool
	WeekPolicy domain.WeekPolicy
	// MaxRows caps each source table; 0 disables the cap.
	MaxRows int
}

type Service struct {
	repo       ports.SessionRepository
	events     ports.EventPublisher
	encoder    ports.WorkbookEncoder
	normalizer *schema.Normalizer
	parser     *week.TimestampParser
	policy     domain.WeekPolicy
	maxRows    int
	tracer     trace.Tracer
	log        *zap.Logger
	now        func() time.Time
}

func NewService(repo ports.SessionRepository, events ports.EventPublisher, encoder ports.WorkbookEncoder, opts Options, log *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		events:     events,
		encoder:    encoder,
		normalizer: schema.NewNormalizer(opts.Headers),
		parser:     week.NewTimestampParser(opts.DayFirst),
		policy:     opts.WeekPolicy,
		maxRows:    opts.MaxRows,
		tracer:     otel.Tracer("outlet-kpi/report"),
		log:        log,
		now:        time.Now,
	}
}

var _ ports.ReportService = (*Service)(nil)

func (s *Service) CreateSession(ctx context.Context, in domain.SessionInput) (*domain.SessionSummary, error) {
	return s.compute(ctx, uuid.NewString(), in, nil)
}

// ReplaceSession recomputes id from a fresh upload. The previous snapshot
// is discarded entirely.
func (s *Service) ReplaceSession(ctx context.Context, id string, in domain.SessionInput) (*domain.SessionSummary, error) {
	prev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, id, in, prev)
}

func (s *Service) compute(ctx context.Context, id string, in domain.SessionInput, prev *domain.Session) (*domain.SessionSummary, error) {
	ctx, span := s.tracer.Start(ctx, "report.compute_session", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()
	start := time.Now()

	sess, rec, err := s.build(ctx, id, in)
	if err != nil {
		telemetry.SessionsTotal.WithLabelValues(resultLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("Session rejected", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	sess.CreatedAt, sess.UpdatedAt = now, now
	if prev != nil {
		sess.CreatedAt = prev.CreatedAt
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		telemetry.SessionsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	telemetry.SessionsTotal.WithLabelValues("ok").Inc()
	telemetry.PipelineDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	ev := domain.SessionEvent{
		Type:       domain.EventSessionComputed,
		SessionID:  sess.ID,
		WeekPolicy: sess.WeekPolicy,
		Stats:      rec.Stats,
		Weeks:      rec.Weeks,
		OccurredAt: now,
	}
	if err := s.events.PublishSessionComputed(ctx, ev); err != nil {
		s.log.Warn("Failed to publish session event", zap.String("session_id", sess.ID), zap.Error(err))
	}

	span.SetAttributes(
		attribute.Int("registry.rows", rec.Stats.RegistryRows),
		attribute.Int("scan.rows", rec.Stats.ScanRows),
		attribute.Int("events.unmatched", rec.Stats.UnmatchedEvents),
	)
	s.log.Info("Session computed",
		zap.String("session_id", sess.ID),
		zap.String("week_policy", sess.WeekPolicy),
		zap.Int("registry_rows", rec.Stats.RegistryRows),
		zap.Int("scan_rows", rec.Stats.ScanRows),
		zap.Int("unmatched_events", rec.Stats.UnmatchedEvents),
		zap.Int("parse_errors", sess.ParseErrorCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summarize(sess, rec), nil
}

// build runs normalize, decode and bucket on both sources.
func (s *Service) build(ctx context.Context, id string, in domain.SessionInput) (*domain.Session, *domain.Reconciliation, error) {
	if in.Registry == nil || in.ScanLog == nil {
		return nil, nil, &domain.ConfigurationError{Field: "input", Reason: "both registry and scan_log are required"}
	}
	policy := s.policy
	if in.WeekPolicy != "" {
		p, err := domain.ParseWeekPolicy(in.WeekPolicy)
		if err != nil {
			return nil, nil, err
		}
		policy = p
	}
	for _, t := range []*domain.Table{in.Registry, in.ScanLog} {
		if s.maxRows > 0 && t.Len() > s.maxRows {
			return nil, nil, &domain.RowLimitError{Source: t.Source, Rows: t.Len(), Limit: s.maxRows}
		}
	}

	var (
		reg, scan *schema.Normalized
		err       error
	)
	s.stage(ctx, "normalize", func(ctx context.Context) {
		if reg, err = s.normalizer.Normalize(in.Registry, domain.KindRegistry); err != nil {
			return
		}
		scan, err = s.normalizer.Normalize(in.ScanLog, domain.KindScanLog)
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		outlets []domain.Outlet
		events  []domain.ScanEvent
	)
	s.stage(ctx, "decode", func(ctx context.Context) {
		if outlets, err = schema.DecodeRegistry(reg); err != nil {
			return
		}
		events, err = schema.DecodeScanLog(scan)
	})
	if err != nil {
		return nil, nil, err
	}
	telemetry.RowsIngestedTotal.WithLabelValues(string(domain.KindRegistry)).Add(float64(len(outlets)))
	telemetry.RowsIngestedTotal.WithLabelValues(string(domain.KindScanLog)).Add(float64(len(events)))

	var failures []domain.ParseError
	s.stage(ctx, "bucket", func(ctx context.Context) {
		events, failures = week.NewBucketer(policy, s.parser).Apply(events)
	})
	if len(failures) > 0 {
		telemetry.ParseErrorsTotal.Add(float64(len(failures)))
		for _, f := range failures[:min(len(failures), 5)] {
			s.log.Debug("Unparseable scan timestamp", zap.Int("row", f.Row), zap.String("value", f.Value))
		}
		s.log.Info("Scan log rows without a week",
			zap.String("session_id", id),
			zap.Int("count", len(failures)),
		)
	}

	sess := &domain.Session{
		ID:              id,
		WeekPolicy:      policy.String(),
		RegistrySource:  in.Registry.Source,
		ScanSource:      in.ScanLog.Source,
		RegistryColumns: reg.Columns,
		ScanColumns:     scan.Columns,
		Registry:        outlets,
		Events:          events,
		ParseErrorCount: len(failures),
		ParseErrors:     failures[:min(len(failures), maxParseErrorSamples)],
		Shadowed:        append(append([]string(nil), reg.Shadowed...), scan.Shadowed...),
	}

	var rec *domain.Reconciliation
	s.stage(ctx, "reconcile", func(ctx context.Context) {
		rec = reconcile.Reconcile(sess.Registry, sess.RegistryColumns, sess.Events)
	})
	telemetry.UnmatchedEventsTotal.Add(float64(rec.Stats.UnmatchedEvents))
	return sess, rec, nil
}

// stage wraps fn in a span and a duration observation.
func (s *Service) stage(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, span := s.tracer.Start(ctx, "report."+name)
	defer span.End()
	start := time.Now()
	fn(ctx)
	telemetry.PipelineDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// load fetches a session and reconciles it.
func (s *Service) load(ctx context.Context, id string) (*domain.Session, *domain.Reconciliation, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var rec *domain.Reconciliation
	s.stage(ctx, "reconcile", func(ctx context.Context) {
		rec = reconcile.Reconcile(sess.Registry, sess.RegistryColumns, sess.Events)
	})
	return sess, rec, nil
}

func (s *Service) GetSummary(ctx context.Context, id string) (*domain.SessionSummary, error) {
	sess, rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return summarize(sess, rec), nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Session deleted", zap.String("session_id", id))
	return nil
}

func (s *Service) Aggregate(ctx context.Context, id string, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	_, rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var rows []domain.AggregateRow
	s.stage(ctx, "aggregate", func(ctx context.Context) {
		rows, err = aggregate.Aggregate(rec, q)
	})
	return rows, err
}

func (s *Service) Pivot(ctx context.Context, id string, q domain.AggregateQuery, metric domain.Metric) (*domain.PivotTable, error) {
	tables, err := s.pivots(ctx, id, q, []domain.Metric{metric})
	if err != nil {
		return nil, err
	}
	return tables[0], nil
}

func (s *Service) pivots(ctx context.Context, id string, q domain.AggregateQuery, metrics []domain.Metric) ([]*domain.PivotTable, error) {
	rows, err := s.Aggregate(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		metrics = []domain.Metric{domain.MetricPercentActive}
	}
	tables := make([]*domain.PivotTable, len(metrics))
	s.stage(ctx, "pivot", func(ctx context.Context) {
		for i, m := range metrics {
			tables[i] = pivot.Build(rows, q.GroupBy, m, q.Weeks)
		}
	})
	return tables, nil
}

// Export renders the pivots for metrics plus the anomaly lists for the
// same week window and filters.
func (s *Service) Export(ctx context.Context, id string, q domain.AggregateQuery, metrics []domain.Metric) ([]byte, error) {
	tables, err := s.pivots(ctx, id, q, metrics)
	if err != nil {
		return nil, err
	}
	inactive, err := s.Inactive(ctx, id, domain.InactiveQuery{Weeks: q.Weeks, Filters: q.Filters})
	if err != nil {
		return nil, err
	}
	multi, err := s.MultiOutlet(ctx, id)
	if err != nil {
		return nil, err
	}

	var data []byte
	s.stage(ctx, "export", func(ctx context.Context) {
		data, err = s.encoder.Encode(&domain.Workbook{Pivots: tables, Inactive: inactive, MultiOutlet: multi})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export session %s: %w", id, err)
	}
	return data, nil
}

func (s *Service) Inactive(ctx context.Context, id string, q domain.InactiveQuery) ([]domain.InactiveOutlet, error) {
	_, rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return anomaly.FindInactive(rec, q)
}

func (s *Service) MultiOutlet(ctx context.Context, id string) ([]domain.MultiOutletScan, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return anomaly.DetectMultiOutlet(sess.Events), nil
}

func summarize(sess *domain.Session, rec *domain.Reconciliation) *domain.SessionSummary {
	return &domain.SessionSummary{
		ID:              sess.ID,
		CreatedAt:       sess.CreatedAt,
		UpdatedAt:       sess.UpdatedAt,
		WeekPolicy:      sess.WeekPolicy,
		RegistrySource:  sess.RegistrySource,
		ScanSource:      sess.ScanSource,
		RegistryColumns: sess.RegistryColumns,
		ScanColumns:     sess.ScanColumns,
		Stats:           rec.Stats,
		Weeks:           rec.Weeks,
		ParseErrorCount: sess.ParseErrorCount,
		ParseErrors:     sess.ParseErrors,
		Shadowed:        sess.Shadowed,
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrSchema):
		return "schema_error"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, domain.ErrRowLimit):
		return "row_limit"
	default:
		return "error"
	}
}
