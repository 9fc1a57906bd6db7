package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，如 AEROKPI_SERVER_PORT
const EnvPrefix = "AEROKPI"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server" yaml:"server" json:"server" envconfig:"SERVER"`
	Data    DataConfig    `toml:"data" yaml:"data" json:"data" envconfig:"DATA"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging" envconfig:"LOG"`
	Report  ReportConfig  `toml:"report" yaml:"report" json:"report" envconfig:"REPORT"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port" yaml:"port" json:"port" envconfig:"PORT"`
	DevMode bool `toml:"dev_mode" yaml:"dev_mode" json:"dev_mode" envconfig:"DEV_MODE"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir          string `toml:"data_dir" yaml:"data_dir" json:"data_dir" envconfig:"DIR"`
	ExportTTLMinutes int    `toml:"export_ttl_minutes" yaml:"export_ttl_minutes" json:"export_ttl_minutes" envconfig:"EXPORT_TTL_MINUTES"`
	MaxUploadMB      int    `toml:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
	KeepReports      int    `toml:"keep_reports" yaml:"keep_reports" json:"keep_reports" envconfig:"KEEP_REPORTS"` // 内存中保留的最近报表数
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string `toml:"level" yaml:"level" json:"level" envconfig:"LEVEL"`       // debug/info/warn/error
	Format   string `toml:"format" yaml:"format" json:"format" envconfig:"FORMAT"`   // json/text
	Output   string `toml:"output" yaml:"output" json:"output" envconfig:"OUTPUT"`   // stdout/stderr/file/both
	FilePath string `toml:"file_path" yaml:"file_path" json:"file_path" envconfig:"FILE"`
}

// ReportConfig 报表口径配置
type ReportConfig struct {
	SupportGroup     string            `toml:"support_group" yaml:"support_group" json:"support_group" envconfig:"SUPPORT_GROUP"`
	ResolvedMode     string            `toml:"resolved_mode" yaml:"resolved_mode" json:"resolved_mode" envconfig:"RESOLVED_MODE"` // not_pending/solved
	OnTimeToken      string            `toml:"on_time_token" yaml:"on_time_token" json:"on_time_token" envconfig:"ON_TIME_TOKEN"`
	RescueDispatcher string            `toml:"rescue_dispatcher" yaml:"rescue_dispatcher" json:"rescue_dispatcher" envconfig:"RESCUE_DISPATCHER"`
	LongTripMinutes  float64           `toml:"long_trip_minutes" yaml:"long_trip_minutes" json:"long_trip_minutes" envconfig:"LONG_TRIP_MINUTES"`
	FillOverrides    map[string]string `toml:"fill_overrides" yaml:"fill_overrides" json:"fill_overrides" envconfig:"FILL_OVERRIDES"` // KPI -> zero/null
	DateFormats      []string          `toml:"date_formats" yaml:"date_formats" json:"date_formats" envconfig:"DATE_FORMATS"`
	Parallel         bool              `toml:"parallel" yaml:"parallel" json:"parallel" envconfig:"PARALLEL"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string // 实际读取的配置文件，未读取时为空
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:          "data",
			ExportTTLMinutes: 30,
			MaxUploadMB:      64,
			KeepReports:      20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Report: ReportConfig{
			SupportGroup:    "C_Ops Support",
			ResolvedMode:    "not_pending",
			OnTimeToken:     "02. A tiempo (0-20 min antes)",
			LongTripMinutes: 90,
			FillOverrides:   map[string]string{},
			Parallel:        true,
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 加载配置：默认值 -> 配置文件 -> 环境变量
//
// path 为空时读取可执行文件同目录下的 config.toml（不存在则只用默认值）。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		exeDir, err := GetExeDir()
		if err != nil {
			// 无法获取可执行文件目录，使用当前目录
			exeDir = "."
		}
		path = filepath.Join(exeDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Path = path
		if err := decode(path, data, config); err != nil {
			return nil, info, fmt.Errorf("parse config %s: %w", path, err)
		}
		info.PortSpecified = isPortSpecified(path, data)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(config); err != nil {
		return nil, info, err
	}
	if os.Getenv(EnvPrefix+"_SERVER_PORT") != "" {
		info.PortSpecified = true
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// applyEnv 环境变量覆盖（只覆盖已设置的变量）
func applyEnv(config *AppConfig) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("load config from env: %w", err)
	}
	return nil
}

// decode 按扩展名解析 toml / yaml / json
func decode(path string, data []byte, config *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return toml.Unmarshal(data, config)
	}
}

func isPortSpecified(path string, data []byte) bool {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return false
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return false
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return false
		}
	}

	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Report.ResolvedMode) {
	case "", "not_pending", "solved":
	default:
		return fmt.Errorf("invalid report.resolved_mode %q (want not_pending or solved)", c.Report.ResolvedMode)
	}
	for kpi, policy := range c.Report.FillOverrides {
		switch strings.ToLower(policy) {
		case "zero", "null":
		default:
			return fmt.Errorf("invalid fill override %q for %s (want zero or null)", policy, kpi)
		}
	}
	switch strings.ToLower(c.Logging.Output) {
	case "file", "both":
		if c.Logging.FilePath == "" {
			return fmt.Errorf("logging.file_path is required for output %q", c.Logging.Output)
		}
	}
	if c.Data.ExportTTLMinutes <= 0 {
		c.Data.ExportTTLMinutes = DefaultConfig().Data.ExportTTLMinutes
	}
	return nil
}

// SaveConfig 保存配置到可执行文件同目录的 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径基于可执行文件所在目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
