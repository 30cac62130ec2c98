package report

import (
	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/service/schema"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// OptionsFromConfig resolves pipeline options, merging configured header
// aliases over the defaults.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := domain.ParseWeekPolicy(cfg.Report.WeekPolicy)
	if err != nil {
		return Options{}, err
	}

	headers := schema.DefaultHeaderMap()
	if headers, err = headers.With(domain.KindRegistry, cfg.Headers.Registry); err != nil {
		return Options{}, err
	}
	if headers, err = headers.With(domain.KindScanLog, cfg.Headers.ScanLog); err != nil {
		return Options{}, err
	}

	return Options{
		Headers:    headers,
		DayFirst:   cfg.Report.DayFirst,
		WeekPolicy: policy,
		MaxRows:    cfg.Limits.MaxRows,
	}, nil
}
