// Command kpi computes weekly outlet activation from a registry file and a
// scan log file without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/adapter/cache"
	"github.com/seu-repo/outlet-kpi/internal/adapter/export"
	"github.com/seu-repo/outlet-kpi/internal/adapter/ingest"
	"github.com/seu-repo/outlet-kpi/internal/adapter/queue"
	"github.com/seu-repo/outlet-kpi/internal/adapter/storage/session"
	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/observability/telemetry"
	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/internal/service/report"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	registry      string
	scanLog       string
	registrySheet string
	scanSheet     string
	weekPolicy    string
	groupBy       string
	weeks         string
	metric        string
	filters       map[domain.Dimension]*string
	out           string
	inactive      bool
	multiOutlet   bool
	verbose       bool
}

func parseFlags(args []string, cfg *config.Config) (*options, error) {
	fs := pflag.NewFlagSet("kpi", pflag.ContinueOnError)
	o := &options{filters: make(map[domain.Dimension]*string)}

	fs.StringVar(&o.configPath, "config", "", "Optional config file")
	fs.StringVar(&o.registry, "registry", "", "Outlet registry file (.csv or .xlsx)")
	fs.StringVar(&o.scanLog, "scan", "", "Scan log file (.csv or .xlsx)")
	fs.StringVar(&o.registrySheet, "registry-sheet", cfg.Report.RegistrySheet, "Registry sheet name for workbooks")
	fs.StringVar(&o.scanSheet, "scan-sheet", cfg.Report.ScanSheet, "Scan log sheet name for workbooks")
	fs.StringVar(&o.weekPolicy, "week-policy", cfg.Report.WeekPolicy, `Week policy: "monday" or "shifted:N"`)
	fs.StringVar(&o.groupBy, "group-by", cfg.Report.GroupBy, "Comma separated dimensions (dso, pic, program)")
	fs.StringVar(&o.weeks, "weeks", "", `Week window such as "3,5-7"; empty uses every week`)
	fs.StringVar(&o.metric, "metric", cfg.Report.Metric, "Metric(s) to pivot, comma separated")
	for _, d := range domain.Dimensions {
		o.filters[d] = fs.String(string(d), "", fmt.Sprintf("Only include outlets whose %s is one of these values", d.Label()))
	}
	fs.StringVarP(&o.out, "out", "o", "", "Write an .xlsx workbook to this path")
	fs.BoolVar(&o.inactive, "inactive", false, "Print outlets without activations in the window")
	fs.BoolVar(&o.multiOutlet, "multi-outlet", false, "Print consumers scanned at more than one outlet")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.registry == "" || o.scanLog == "" {
		return nil, fmt.Errorf("--registry and --scan are required")
	}
	return o, nil
}

func (o *options) dimensionFilter() domain.DimensionFilter {
	var f domain.DimensionFilter
	for d, raw := range o.filters {
		var values []string
		for _, v := range strings.Split(*raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		if f == nil {
			f = make(domain.DimensionFilter)
		}
		f[d] = values
	}
	return f
}

// configFor loads --config when given, before the remaining flags are parsed
// against its defaults.
func configFor(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("kpi", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	fs.SetOutput(io.Discard)
	_ = fs.Parse(args)
	if *path != "" {
		return config.LoadFile(*path)
	}
	return config.Load()
}

func run(args []string, stdout io.Writer) error {
	cfg, err := configFor(args)
	if err != nil {
		return err
	}
	o, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if o.verbose {
		cfg.Logging.Output = "stderr"
		if logger, err = telemetry.NewLogger(cfg.Logging); err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx := context.Background()
	reader := ingest.NewReader(int64(cfg.Limits.MaxUploadBytes), logger)
	registry, err := readFile(reader, o.registry, o.registrySheet, domain.KindRegistry)
	if err != nil {
		return err
	}
	scans, err := readFile(reader, o.scanLog, o.scanSheet, domain.KindScanLog)
	if err != nil {
		return err
	}

	opts, err := report.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	store := cache.NewLocalCache(0, 0, logger)
	defer store.Close()
	svc := report.NewService(
		session.NewRepository(store, "kpi:", 0, logger),
		queue.NewEventPublisher(queue.NewNoopQueue(logger), cfg.Events.Subject, logger),
		export.NewXLSXEncoder(logger),
		opts,
		logger,
	)

	summary, err := svc.CreateSession(ctx, domain.SessionInput{Registry: registry, ScanLog: scans, WeekPolicy: o.weekPolicy})
	if err != nil {
		return err
	}
	printSummary(stdout, summary)

	groupBy, err := domain.ParseDimensions(o.groupBy)
	if err != nil {
		return err
	}
	weeks, err := domain.ParseWeeks(o.weeks)
	if err != nil {
		return err
	}
	metrics, err := domain.ParseMetrics(o.metric)
	if err != nil {
		return err
	}
	q := domain.AggregateQuery{GroupBy: groupBy, Weeks: weeks, Filters: o.dimensionFilter()}

	for _, m := range metrics {
		table, err := svc.Pivot(ctx, summary.ID, q, m)
		if err != nil {
			return err
		}
		printPivot(stdout, table)
	}

	if o.inactive {
		list, err := svc.Inactive(ctx, summary.ID, domain.InactiveQuery{Weeks: weeks, Filters: q.Filters})
		if err != nil {
			return err
		}
		printInactive(stdout, list)
	}
	if o.multiOutlet {
		list, err := svc.MultiOutlet(ctx, summary.ID)
		if err != nil {
			return err
		}
		printMultiOutlet(stdout, list)
	}

	if o.out != "" {
		data, err := svc.Export(ctx, summary.ID, q, metrics)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.out, data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprintf(stdout, "\nWorkbook saved to %s\n", o.out)
	}
	return nil
}

func readFile(reader ports.TableReader, path, sheet string, kind domain.TableKind) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	defer f.Close()
	return reader.Read(filepath.Base(path), f, sheet, kind)
}

func printSummary(w io.Writer, s *domain.SessionSummary) {
	st := s.Stats
	fmt.Fprintf(w, "Registry: %s (%d rows, %d outlets)\n", s.RegistrySource, st.RegistryRows, st.DistinctOutlets)
	fmt.Fprintf(w, "Scan log: %s (%d rows)\n", s.ScanSource, st.ScanRows)
	fmt.Fprintf(w, "Week policy: %s\n", s.WeekPolicy)
	fmt.Fprintf(w, "Matched: %d | Unmatched: %d | Undated: %d | Never scanned outlets: %d\n",
		st.MatchedEvents, st.UnmatchedEvents, st.UndatedEvents, st.UnscannedOutlets)
	if s.ParseErrorCount > 0 {
		fmt.Fprintf(w, "Unparseable timestamps: %d\n", s.ParseErrorCount)
	}
	if len(s.Shadowed) > 0 {
		fmt.Fprintf(w, "Shadowed headers: %s\n", strings.Join(s.Shadowed, ", "))
	}
}

func printPivot(w io.Writer, p *domain.PivotTable) {
	fmt.Fprintf(w, "\n%s\n", p.Metric.Label())
	header := make([]string, 0, len(p.Dimensions)+len(p.Weeks))
	for _, d := range p.Dimensions {
		header = append(header, d.Label())
	}
	for _, wk := range p.Weeks {
		header = append(header, wk.String())
	}
	fmt.Fprintln(w, strings.Join(header, " | "))

	for _, row := range p.Rows {
		cells := append([]string{}, row.Key...)
		for _, v := range row.Cells {
			cells = append(cells, formatCell(p.Metric, v))
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

func formatCell(m domain.Metric, v float64) string {
	if m == domain.MetricPercentActive {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.0f", v)
}

func printInactive(w io.Writer, list []domain.InactiveOutlet) {
	fmt.Fprintf(w, "\nInactive outlets: %d\n", len(list))
	for _, o := range list {
		last := "never"
		if o.EverScanned {
			last = "scanned outside window"
			if o.LastWeek.Valid() {
				last = "last " + o.LastWeek.String()
			}
		}
		fmt.Fprintf(w, "%s | %s | %s | %s | %s\n",
			o.ID, o.Value(domain.DimensionDSO), o.Value(domain.DimensionPIC), o.Value(domain.DimensionProgram), last)
	}
}

func printMultiOutlet(w io.Writer, list []domain.MultiOutletScan) {
	fmt.Fprintf(w, "\nConsumers at more than one outlet: %d\n", len(list))
	for _, m := range list {
		fmt.Fprintf(w, "%s | %d scans | %s\n", m.ConsumerID, m.Scans, strings.Join(m.OutletIDs, ", "))
	}
}
