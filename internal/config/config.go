package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/dashboard-fill/internal/aggregate"
)

// Config holds the full application configuration. The flat keys match the
// config.json files already kept next to the dashboards.
type Config struct {
	DashboardTemplateName string      `yaml:"dashboard_template_name" mapstructure:"dashboard_template_name"`
	OutputDashboardName   string      `yaml:"output_dashboard_name" mapstructure:"output_dashboard_name"`
	InputPrefix           string      `yaml:"input_prefix" mapstructure:"input_prefix"`
	FinancialSheetPrefix  string      `yaml:"financial_sheet_prefix" mapstructure:"financial_sheet_prefix"`
	Firms                 []string    `yaml:"firms" mapstructure:"firms"`
	YearSheetPrefix       string      `yaml:"year_sheet_prefix" mapstructure:"year_sheet_prefix"`
	FirmPrefix            string      `yaml:"firm_prefix" mapstructure:"firm_prefix"`
	ScanMaxRows           int         `yaml:"scan_max_rows" mapstructure:"scan_max_rows"`
	ScanMaxCols           int         `yaml:"scan_max_cols" mapstructure:"scan_max_cols"`
	LookRightMax          int         `yaml:"look_right_max" mapstructure:"look_right_max"`
	MetricAliasesPath     string      `yaml:"metric_aliases_path" mapstructure:"metric_aliases_path"`
	Concurrency           int         `yaml:"concurrency" mapstructure:"concurrency"`
	Store                 StoreConfig `yaml:"store" mapstructure:"store"`
	Log                   LogConfig   `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the optional run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "", "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. When path is empty a
// config.json or config.yaml is looked up in each of searchDirs; a missing
// file leaves the defaults in place.
func Load(path string, searchDirs ...string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("DASHFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dashboard_template_name", "StratSim_Dashboard_2025-FL_Section01.xlsx")
	v.SetDefault("output_dashboard_name", "StratSim_Dashboard_UPDATED.xlsx")
	v.SetDefault("input_prefix", "Competition - Financial Summary - Year ")
	v.SetDefault("financial_sheet_prefix", "Financial Details for ")
	v.SetDefault("firms", []string{"A", "B", "C", "D", "E", "F", "G"})
	v.SetDefault("year_sheet_prefix", "Year ")
	v.SetDefault("firm_prefix", "FIRM ")
	v.SetDefault("scan_max_rows", 250)
	v.SetDefault("scan_max_cols", 30)
	v.SetDefault("look_right_max", 4)
	v.SetDefault("metric_aliases_path", "metric_aliases.json")
	v.SetDefault("concurrency", 4)
	v.SetDefault("store.driver", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	firms := make([]string, 0, len(c.Firms))
	for _, f := range c.Firms {
		firms = append(firms, strings.ToUpper(strings.TrimSpace(f)))
	}
	c.Firms = firms
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

// Validate checks the fields the tool cannot run without and names the
// offending key.
func (c *Config) Validate() error {
	if len(c.Firms) == 0 {
		return eris.New(`config: "firms" must be a non-empty list like ["A","B"]`)
	}
	for i, f := range c.Firms {
		if f == "" {
			return eris.Errorf(`config: "firms"[%d] is empty`, i)
		}
	}

	for _, f := range []struct {
		key string
		val int
	}{
		{"scan_max_rows", c.ScanMaxRows},
		{"scan_max_cols", c.ScanMaxCols},
		{"look_right_max", c.LookRightMax},
		{"concurrency", c.Concurrency},
	} {
		if f.val <= 0 {
			return eris.Errorf("config: %q must be a positive integer", f.key)
		}
	}

	for _, f := range []struct {
		key string
		val string
	}{
		{"dashboard_template_name", c.DashboardTemplateName},
		{"output_dashboard_name", c.OutputDashboardName},
		{"input_prefix", c.InputPrefix},
		{"financial_sheet_prefix", c.FinancialSheetPrefix},
		{"year_sheet_prefix", c.YearSheetPrefix},
		{"firm_prefix", c.FirmPrefix},
	} {
		if strings.TrimSpace(f.val) == "" {
			return eris.Errorf("config: %q must be a non-empty string", f.key)
		}
	}

	switch c.Store.Driver {
	case "", "none", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

// ScanParams returns the aggregation settings derived from the config.
func (c *Config) ScanParams() aggregate.Params {
	return aggregate.Params{
		Entities:     c.Firms,
		EntityPrefix: c.FirmPrefix,
		MaxRows:      c.ScanMaxRows,
		MaxCols:      c.ScanMaxCols,
		LookRightMax: c.LookRightMax,
	}
}

// Resolve joins a configured file name onto dir unless it is already absolute.
func Resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// ExecutableDir returns the directory holding the running binary, or "" when
// it cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
