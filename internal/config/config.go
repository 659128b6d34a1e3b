package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	DataDir  string
	Language string // game language code, e.g. CHS

	ProtagonistName   string
	ProtagonistGender string
	SummaryCategory   string
	SentenceSignal    string // regexp for signals that carry a sentence id
	OptionTree        bool
	MaxTriggerDepth   int
	MaxScriptElements int // per-file output budget of the flowchart interpreter

	RedisURL string
	CacheTTL time.Duration
}

// fileConfig mirrors Config for the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	DataDir     string `yaml:"data_dir"`
	Language    string `yaml:"language"`
	Protagonist struct {
		Name   string `yaml:"name"`
		Gender string `yaml:"gender"`
	} `yaml:"protagonist"`
	Interpreter struct {
		SummaryCategory   string `yaml:"summary_category"`
		SentenceSignal    string `yaml:"sentence_signal"`
		OptionTree        bool   `yaml:"option_tree"`
		MaxTriggerDepth   int    `yaml:"max_trigger_depth"`
		MaxScriptElements int    `yaml:"max_script_elements"`
	} `yaml:"interpreter"`
	Cache struct {
		RedisURL string        `yaml:"redis_url"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
}

// Load builds the configuration from an optional YAML file (CONFIG_FILE)
// overridden by environment variables.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	lang, err := ParseLanguage(getEnv("LANGUAGE", orDefault(file.Language, "CHS")))
	if err != nil {
		return nil, err
	}

	depth, err := getEnvInt("MAX_TRIGGER_DEPTH", orDefaultInt(file.Interpreter.MaxTriggerDepth, 64))
	if err != nil {
		return nil, err
	}

	elements, err := getEnvInt("MAX_SCRIPT_ELEMENTS", orDefaultInt(file.Interpreter.MaxScriptElements, 20000))
	if err != nil {
		return nil, err
	}

	ttl, err := getEnvDuration("CACHE_TTL", orDefaultDuration(file.Cache.TTL, 24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:       getEnv("ENVIRONMENT", orDefault(file.Environment, "development")),
		LogLevel:          parseLogLevel(getEnv("LOG_LEVEL", orDefault(file.LogLevel, "info"))),
		DataDir:           getEnv("DATA_DIR", orDefault(file.DataDir, "./data")),
		Language:          lang,
		ProtagonistName:   getEnv("PROTAGONIST_NAME", orDefault(file.Protagonist.Name, "开拓者")),
		ProtagonistGender: getEnv("PROTAGONIST_GENDER", orDefault(file.Protagonist.Gender, "female")),
		SummaryCategory:   getEnv("SUMMARY_CATEGORY", orDefault(file.Interpreter.SummaryCategory, "Mission")),
		SentenceSignal:    getEnv("SENTENCE_SIGNAL", file.Interpreter.SentenceSignal),
		OptionTree:        getEnvBool("OPTION_TREE", file.Interpreter.OptionTree),
		MaxTriggerDepth:   depth,
		MaxScriptElements: elements,
		RedisURL:          getEnv("REDIS_URL", file.Cache.RedisURL),
		CacheTTL:          ttl,
	}, nil
}

var gameLanguages = map[string]bool{
	"CHS": true, "CHT": true, "DE": true, "EN": true, "ES": true, "FR": true, "ID": true,
	"JP": true, "KR": true, "PT": true, "RU": true, "TH": true, "VI": true,
}

// ParseLanguage accepts a game language code (CHS, EN, ...) or a BCP 47 tag
// (zh-Hans, en-US, ja) and returns the game code.
func ParseLanguage(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if gameLanguages[code] {
		return code, nil
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", s, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "zh":
		if script, _ := tag.Script(); script.String() == "Hant" {
			return "CHT", nil
		}
		return "CHS", nil
	case "ja":
		return "JP", nil
	case "ko":
		return "KR", nil
	}

	code = strings.ToUpper(base.String())
	if !gameLanguages[code] {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return code, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orDefaultInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orDefaultDuration(value, fallback time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return fallback
}
