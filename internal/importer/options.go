package importer

import (
	"log/slog"
	"strings"

	"aerokpi/internal/config"
	"aerokpi/internal/metrics"
	"aerokpi/internal/model"
	"aerokpi/internal/normalizer"
	"aerokpi/internal/parser"
)

// OptionsFromConfig 由报表配置构建协调器参数
func OptionsFromConfig(cfg config.ReportConfig, logger *slog.Logger, recorder *metrics.Recorder) (Options, error) {
	resolved, err := normalizer.ClassifierFor(cfg.ResolvedMode)
	if err != nil {
		return Options{}, err
	}

	n := normalizer.DefaultOptions()
	n.Logger = logger
	n.Resolved = resolved
	n.Dates = parser.NewDateParser().WithExtraFormats(cfg.DateFormats...)
	if cfg.SupportGroup != "" {
		n.SupportGroup = cfg.SupportGroup
	}
	if cfg.OnTimeToken != "" {
		n.OnTimeToken = cfg.OnTimeToken
	}
	if cfg.LongTripMinutes > 0 {
		n.LongTripMinutes = cfg.LongTripMinutes
	}
	n.RescueDispatcher = cfg.RescueDispatcher

	overrides := make(map[string]model.FillPolicy, len(cfg.FillOverrides))
	for kpi, policy := range cfg.FillOverrides {
		overrides[kpi] = model.FillPolicy(strings.ToLower(policy))
	}

	return Options{
		Normalizer: n,
		Catalog:    model.DefaultCatalog().WithFillOverrides(overrides),
		Logger:     logger,
		Metrics:    recorder,
		Parallel:   cfg.Parallel,
	}, nil
}
