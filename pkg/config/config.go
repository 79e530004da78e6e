// Package config loads gateway settings from flags, environment, an optional
// YAML config file and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dasmlab/babelgate/pkg/detect"
	"github.com/dasmlab/babelgate/pkg/generate"
	"github.com/dasmlab/babelgate/pkg/translate"
)

// EnvPrefix prefixes every environment variable derived from a config key,
// e.g. BABELGATE_SERVER_PORT for server.port.
const EnvPrefix = "BABELGATE"

// Config is the typed view of the loaded settings.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Detector detect.EngineType
	// DetectorOptions holds the lingua language set and preload switch.
	DetectorOptions detect.Options
	Translation     translate.Config
	Generation      generate.Config
	CSV             CSVConfig
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Port int
	// GRPCPort serves grpc.health.v1. Zero disables it.
	GRPCPort int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// CSVConfig holds batch CSV settings.
type CSVConfig struct {
	OutputDir string
}

// legacyEnv lists the unprefixed variable names accepted for keys that
// predate the BABELGATE_ prefix.
var legacyEnv = map[string][]string{
	"generation.api_key":  {"GOOGLE_API_KEY"},
	"openai.api_key":      {"OPENAI_API_KEY"},
	"translation.api_key": {"LIBRETRANSLATE_API_KEY"},
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.grpc_port", 50051)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("detector.engine", string(detect.EngineLingua))
	v.SetDefault("detector.languages", []string{})
	v.SetDefault("detector.preload", true)

	v.SetDefault("translation.engine", string(translate.EngineLibreTranslate))
	v.SetDefault("translation.url", "")
	v.SetDefault("translation.api_key", "")
	v.SetDefault("translation.timeout", time.Duration(0))
	v.SetDefault("translation.breaker.enabled", true)
	v.SetDefault("translation.breaker.max_failures", 5)
	v.SetDefault("translation.breaker.open_timeout", 30*time.Second)

	v.SetDefault("generation.engine", string(generate.EngineGemini))
	v.SetDefault("generation.url", "")
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.timeout", time.Duration(0))
	v.SetDefault("openai.api_key", "")

	v.SetDefault("csv.output_dir", ".")
}

// BindFlags registers the server's command-line flags on fs and binds them
// to their keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.Int("port", 5000, "HTTP listen port")
	fs.Int("grpc-port", 50051, "gRPC health port (0 disables)")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "text", "Log format: text or json")
	fs.String("detector", string(detect.EngineLingua), "Language detector: lingua or whatlang")
	fs.String("translation-engine", string(translate.EngineLibreTranslate), "Translation engine: libretranslate or indictrans")
	fs.String("translation-url", "", "Base URL of the translation engine")
	fs.String("generation-engine", string(generate.EngineGemini), "Generation engine: gemini, genai or openai")
	fs.String("generation-model", "", "Generation model name")
	fs.String("csv-output-dir", ".", "Directory for processed CSV files")

	bindings := map[string]string{
		"server.port":        "port",
		"server.grpc_port":   "grpc-port",
		"log.level":          "log-level",
		"log.format":         "log-format",
		"detector.engine":    "detector",
		"translation.engine": "translation-engine",
		"translation.url":    "translation-url",
		"generation.engine":  "generation-engine",
		"generation.model":   "generation-model",
		"csv.output_dir":     "csv-output-dir",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Init wires environment lookup and reads the config file. An explicit
// cfgFile must exist; otherwise $HOME/.babelgate.yaml and ./.babelgate.yaml
// are tried and silently skipped when absent. It returns the config file
// used, if any.
func Init(v *viper.Viper, cfgFile string) (string, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return "", fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".babelgate")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// LoadDotEnv copies the variables of a .env file into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if os.Getenv(name) != "" {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// Load validates the settings in v and returns them typed.
func Load(v *viper.Viper) (*Config, error) {
	detector, err := detect.ParseEngineType(v.GetString("detector.engine"))
	if err != nil {
		return nil, fmt.Errorf("detector.engine: %w", err)
	}

	translationEngine, err := translate.ParseEngineType(v.GetString("translation.engine"))
	if err != nil {
		return nil, fmt.Errorf("translation.engine: %w", err)
	}

	generationEngine, err := generate.ParseEngineType(v.GetString("generation.engine"))
	if err != nil {
		return nil, fmt.Errorf("generation.engine: %w", err)
	}

	generationKey := v.GetString("generation.api_key")
	if generationEngine == generate.EngineOpenAI && v.GetString("openai.api_key") != "" {
		generationKey = v.GetString("openai.api_key")
	}

	format := strings.ToLower(v.GetString("log.format"))
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("log.format: unknown format %q (supported: text, json)", format)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("server.port"),
			GRPCPort: v.GetInt("server.grpc_port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: format,
		},
		Detector: detector,
		DetectorOptions: detect.Options{
			Languages: splitList(v.GetStringSlice("detector.languages")),
			Preload:   v.GetBool("detector.preload"),
		},
		Translation: translate.Config{
			Engine:  translationEngine,
			BaseURL: v.GetString("translation.url"),
			APIKey:  v.GetString("translation.api_key"),
			Timeout: v.GetDuration("translation.timeout"),
			Breaker: translate.BreakerConfig{
				Enabled:     v.GetBool("translation.breaker.enabled"),
				MaxFailures: v.GetUint32("translation.breaker.max_failures"),
				OpenTimeout: v.GetDuration("translation.breaker.open_timeout"),
			},
		},
		Generation: generate.Config{
			Engine:  generationEngine,
			BaseURL: v.GetString("generation.url"),
			Model:   v.GetString("generation.model"),
			APIKey:  generationKey,
			Timeout: v.GetDuration("generation.timeout"),
		},
		CSV: CSVConfig{
			OutputDir: v.GetString("csv.output_dir"),
		},
	}

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("server.port: must be positive, got %d", cfg.Server.Port)
	}
	if cfg.Server.GRPCPort < 0 {
		return nil, fmt.Errorf("server.grpc_port: must not be negative, got %d", cfg.Server.GRPCPort)
	}
	return cfg, nil
}

// splitList flattens comma-separated entries, so an environment value
// such as "en,hi,ta" yields three codes.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NewLogger builds the process logger. An invalid level is reported on the
// returned logger and replaced by info.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
