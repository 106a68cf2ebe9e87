package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/icodeforyou/darksky-go/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16 `validate:"gte=0"`
}

type AppConfigDatabase struct {
	Path string `validate:"required"`
	// How many days archived forecasts should be stored before they get purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigDarkSky struct {
	Key       string   `mapstructure:"key" validate:"required"` // Secret API key, best kept in .env as DARKSKY_KEY
	Latitude  float64  `mapstructure:"latitude" validate:"latitude"`
	Longitude float64  `mapstructure:"longitude" validate:"longitude"`
	Lang      *string  `mapstructure:"lang" validate:"omitempty,darksky_lang"`   // default: "en"
	Units     *string  `mapstructure:"units" validate:"omitempty,darksky_units"` // default: "auto"
	Exclude   []string `mapstructure:"exclude" validate:"dive,darksky_section"`
	Extend    []string `mapstructure:"extend" validate:"dive,eq=hourly"`
	// Only useful for testing against a local mock of the API
	BaseURL *string `mapstructure:"base_url" validate:"omitempty,url"`
	// Request timeout in seconds, default: 10
	Timeout *int   `mapstructure:"timeout" validate:"omitempty,gt=0"`
	RunAt   string `mapstructure:"run_at" validate:"required"`
}

func (d AppConfigDarkSky) GetLang() string {
	if d.Lang == nil {
		return darksky.DefaultLang
	}
	return *d.Lang
}

func (d AppConfigDarkSky) GetUnits() string {
	if d.Units == nil {
		return darksky.DefaultUnits
	}
	return *d.Units
}

func (d AppConfigDarkSky) GetBaseURL() string {
	if d.BaseURL == nil || *d.BaseURL == "" {
		return darksky.DefaultBaseURL
	}
	return *d.BaseURL
}

func (d AppConfigDarkSky) GetTimeout() time.Duration {
	if d.Timeout == nil {
		return darksky.DefaultTimeout
	}
	return time.Duration(*d.Timeout) * time.Second
}

// Options translates the configuration into forecast request options.
func (d AppConfigDarkSky) Options() []darksky.Option {
	opts := []darksky.Option{
		darksky.WithLang(d.GetLang()),
		darksky.WithUnits(d.GetUnits()),
		darksky.WithBaseURL(d.GetBaseURL()),
	}
	if len(d.Exclude) > 0 {
		opts = append(opts, darksky.WithExclude(toSections(d.Exclude)...))
	}
	if len(d.Extend) > 0 {
		opts = append(opts, darksky.WithExtend(toSections(d.Extend)...))
	}
	return opts
}

type AppConfigMqtt struct {
	// Publishing is disabled when no host is configured
	Host     string
	Port     int16
	Username string
	Password string
	ClientID *string `mapstructure:"client_id"`
	// Topic prefix, current conditions are published to "<topic>/currently"
	Topic *string `mapstructure:"topic"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Host != ""
}

func (m AppConfigMqtt) GetClientID() string {
	if m.ClientID == nil {
		return "darksky-go"
	}
	return *m.ClientID
}

func (m AppConfigMqtt) GetTopic() string {
	if m.Topic == nil {
		return "darksky"
	}
	return strings.TrimRight(*m.Topic, "/")
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	DarkSky  AppConfigDarkSky `mapstructure:"darksky"`
	Mqtt     AppConfigMqtt    `mapstructure:"mqtt"`
	Logging  AppConfigLogging `mapstructure:"logging"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "darksky_lang", func(fl validator.FieldLevel) bool {
		return slices.Contains(darksky.Languages(), fl.Field().String())
	})
	mustRegister(v, "darksky_units", func(fl validator.FieldLevel) bool {
		return slices.Contains(darksky.Units(), fl.Field().String())
	})
	mustRegister(v, "darksky_section", func(fl validator.FieldLevel) bool {
		return darksky.IsSection(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Load reads the config file (config/config.yaml unless a path is given),
// overlaid with environment variables, e.g. DARKSKY_KEY for darksky.key.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*AppConfig, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// Watch calls onChange with the reloaded config whenever the config file is
// written. Configs that fail to load are logged and skipped.
func Watch(path string, logger *slog.Logger, onChange func(*AppConfig)) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		c, err := unmarshal(v)
		if err != nil {
			logger.Warn("ignoring changed config", slog.Any("error", err))
			return
		}
		onChange(c)
	})
	v.WatchConfig()

	return nil
}

func newViper(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil {
		slog.Default().Debug("no .env file loaded", slog.Any("error", err))
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Keys must be known to viper for AutomaticEnv to pick them up on Unmarshal.
	v.SetDefault("darksky.key", "")
	v.SetDefault("darksky.run_at", "@hourly")
	v.SetDefault("database.path", "darksky.db")
	v.SetDefault("api.port", 8080)
	v.SetDefault("mqtt.host", "")
	v.SetDefault("mqtt.port", 1883)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	return v, nil
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func toSections(names []string) []darksky.Section {
	sections := make([]darksky.Section, len(names))
	for i, n := range names {
		sections[i] = darksky.Section(n)
	}
	return sections
}
