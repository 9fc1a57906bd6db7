package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
port = 8088

[report]
resolved_mode = "solved"
rescue_dispatcher = "ops@transfer.cl"
long_trip_minutes = 100

[report.fill_overrides]
Nota_Auditorias = "zero"
`)

	cfg, info, err := LoadConfigWithInfo(path)
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "solved", cfg.Report.ResolvedMode)
	assert.Equal(t, "ops@transfer.cl", cfg.Report.RescueDispatcher)
	assert.Equal(t, 100.0, cfg.Report.LongTripMinutes)
	assert.Equal(t, map[string]string{"Nota_Auditorias": "zero"}, cfg.Report.FillOverrides)
	// 未配置的字段保留默认值
	assert.Equal(t, "C_Ops Support", cfg.Report.SupportGroup)
	assert.Equal(t, 30, cfg.Data.ExportTTLMinutes)
}

func TestLoadConfig_YAMLAndJSON(t *testing.T) {
	yamlPath := writeFile(t, "config.yaml", "logging:\n  level: debug\n  format: json\nreport:\n  date_formats: [\"02.01.2006\"]\n")
	cfg, info, err := LoadConfigWithInfo(yamlPath)
	require.NoError(t, err)
	assert.False(t, info.PortSpecified)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"02.01.2006"}, cfg.Report.DateFormats)
	assert.Equal(t, 20261, cfg.Server.Port)

	jsonPath := writeFile(t, "config.json", `{"server": {"port": 9000, "dev_mode": true}}`)
	cfg, info, err = LoadConfigWithInfo(jsonPath)
	require.NoError(t, err)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.toml", "[server]\nport = 8088\n")
	t.Setenv("AEROKPI_SERVER_PORT", "7000")
	t.Setenv("AEROKPI_LOG_LEVEL", "warn")
	t.Setenv("AEROKPI_REPORT_RESOLVED_MODE", "solved")
	t.Setenv("AEROKPI_REPORT_FILL_OVERRIDES", "Nota_Auditorias:zero")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "solved", cfg.Report.ResolvedMode)
	assert.Equal(t, "zero", cfg.Report.FillOverrides["Nota_Auditorias"])
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.toml", "[report]\nresolved_mode = \"closed\"\n"))
	assert.ErrorContains(t, err, "resolved_mode")

	_, err = LoadConfig(writeFile(t, "bad.toml", "[report.fill_overrides]\nCSAT = \"mean\"\n"))
	assert.ErrorContains(t, err, "fill override")

	_, err = LoadConfig(writeFile(t, "bad.toml", "[logging]\noutput = \"file\"\n"))
	assert.ErrorContains(t, err, "file_path")

	_, err = LoadConfig(writeFile(t, "broken.toml", "[server\nport = 1"))
	assert.Error(t, err)
}
