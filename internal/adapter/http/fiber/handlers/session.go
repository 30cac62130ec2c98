package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Multipart field names of an upload.
const (
	formRegistry = "registry"
	formScanLog  = "scan_log"
)

type SessionHandler struct {
	service  ports.ReportService
	reader   ports.TableReader
	defaults config.ReportConfig
	log      *zap.Logger
}

func NewSessionHandler(service ports.ReportService, reader ports.TableReader, defaults config.ReportConfig, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service:  service,
		reader:   reader,
		defaults: defaults,
		log:      log,
	}
}

func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	sessions := router.Group("/sessions")
	sessions.Post("/", h.Create)
	sessions.Get("/:id", h.Get)
	sessions.Put("/:id", h.Replace)
	sessions.Delete("/:id", h.Delete)

	sessions.Get("/:id/aggregates", h.Aggregates)
	sessions.Get("/:id/pivot", h.Pivot)
	sessions.Get("/:id/export", h.Export)
	sessions.Get("/:id/inactive", h.Inactive)
	sessions.Get("/:id/multi-outlet", h.MultiOutlet)
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	in, err := h.readInput(c)
	if err != nil {
		return err
	}

	summary, err := h.service.CreateSession(c.UserContext(), in)
	if err != nil {
		return err
	}

	h.log.Info("Session created",
		zap.String("session_id", summary.ID),
		zap.Int("matched_events", summary.Stats.MatchedEvents),
	)
	return c.Status(fiber.StatusCreated).JSON(summary)
}

func (h *SessionHandler) Replace(c *fiber.Ctx) error {
	in, err := h.readInput(c)
	if err != nil {
		return err
	}

	summary, err := h.service.ReplaceSession(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	summary, err := h.service.GetSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) Aggregates(c *fiber.Ctx) error {
	q, err := h.aggregateQuery(c)
	if err != nil {
		return err
	}

	rows, err := h.service.Aggregate(c.UserContext(), c.Params("id"), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"group_by": q.GroupBy,
		"rows":     rows,
	})
}

func (h *SessionHandler) Pivot(c *fiber.Ctx) error {
	q, err := h.aggregateQuery(c)
	if err != nil {
		return err
	}
	metric, err := domain.ParseMetric(h.queryOr(c, "metric", h.defaults.Metric))
	if err != nil {
		return err
	}

	table, err := h.service.Pivot(c.UserContext(), c.Params("id"), q, metric)
	if err != nil {
		return err
	}
	return c.JSON(table)
}

func (h *SessionHandler) Export(c *fiber.Ctx) error {
	q, err := h.aggregateQuery(c)
	if err != nil {
		return err
	}
	metrics, err := domain.ParseMetrics(h.queryOr(c, "metrics", h.defaults.Metric))
	if err != nil {
		return err
	}

	id := c.Params("id")
	data, err := h.service.Export(c.UserContext(), id, q, metrics)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="outlet-kpi-%s.xlsx"`, id))
	return c.Send(data)
}

func (h *SessionHandler) Inactive(c *fiber.Ctx) error {
	weeks, err := domain.ParseWeeks(c.Query("weeks"))
	if err != nil {
		return err
	}

	outlets, err := h.service.Inactive(c.UserContext(), c.Params("id"), domain.InactiveQuery{
		Weeks:   weeks,
		Filters: parseFilters(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"count":   len(outlets),
		"outlets": outlets,
	})
}

func (h *SessionHandler) MultiOutlet(c *fiber.Ctx) error {
	scans, err := h.service.MultiOutlet(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"count":     len(scans),
		"consumers": scans,
	})
}

func (h *SessionHandler) readInput(c *fiber.Ctx) (domain.SessionInput, error) {
	registry, err := h.readTable(c, formRegistry, h.queryOr(c, "registry_sheet", h.defaults.RegistrySheet), domain.KindRegistry)
	if err != nil {
		return domain.SessionInput{}, err
	}
	scans, err := h.readTable(c, formScanLog, h.queryOr(c, "scan_sheet", h.defaults.ScanSheet), domain.KindScanLog)
	if err != nil {
		return domain.SessionInput{}, err
	}

	return domain.SessionInput{
		Registry:   registry,
		ScanLog:    scans,
		WeekPolicy: h.queryOr(c, "week_policy", ""),
	}, nil
}

func (h *SessionHandler) readTable(c *fiber.Ctx, field, sheet string, kind domain.TableKind) (*domain.Table, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("multipart file %q is required", field))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s upload: %w", field, err)
	}
	defer f.Close()

	return h.reader.Read(fh.Filename, f, sheet, kind)
}

// queryOr reads a query or form value, falling back to def.
func (h *SessionHandler) queryOr(c *fiber.Ctx, key, def string) string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.FormValue(key)); v != "" {
		return v
	}
	return def
}

func (h *SessionHandler) aggregateQuery(c *fiber.Ctx) (domain.AggregateQuery, error) {
	groupBy, err := domain.ParseDimensions(h.queryOr(c, "group_by", h.defaults.GroupBy))
	if err != nil {
		return domain.AggregateQuery{}, err
	}
	weeks, err := domain.ParseWeeks(c.Query("weeks"))
	if err != nil {
		return domain.AggregateQuery{}, err
	}
	return domain.AggregateQuery{
		GroupBy: groupBy,
		Weeks:   weeks,
		Filters: parseFilters(c),
	}, nil
}

// parseFilters reads one comma separated allow list per dimension, e.g.
// ?dso=North,South&program=Gold.
func parseFilters(c *fiber.Ctx) domain.DimensionFilter {
	var filters domain.DimensionFilter
	for _, d := range domain.Dimensions {
		raw := c.Query(string(d))
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var values []string
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		if filters == nil {
			filters = make(domain.DimensionFilter)
		}
		filters[d] = values
	}
	return filters
}
