package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Knesset  KnessetConfig  `yaml:"knesset"`
	Search   SearchConfig   `yaml:"search"`
	AI       AIConfig       `yaml:"ai"`
	News     NewsConfig     `yaml:"news"`
	Cron     CronConfig     `yaml:"cron"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type KnessetConfig struct {
	BaseURL      string `yaml:"base_url"`
	MemberLimit  int    `yaml:"member_limit"`
	MeetingLimit int    `yaml:"meeting_limit"`
}

type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	Region   string `yaml:"region"`
	Results  int    `yaml:"results"`
}

type AIConfig struct {
	Provider string       `yaml:"provider"` // openai | gemini
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type NewsConfig struct {
	UnsplashKey  string `yaml:"unsplash_key"`
	CacheFile    string `yaml:"cache_file"`
	CacheTTLDays int    `yaml:"cache_ttl_days"`
}

type CronConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
	Secret  string `yaml:"secret"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server: ServerConfig{Port: 9880},
		Log:    LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Port: 3306, Name: "knesset_pulse"},
		Knesset: KnessetConfig{
			BaseURL:      "https://oknesset.org/api/v2",
			MemberLimit:  120,
			MeetingLimit: 200,
		},
		Search: SearchConfig{Language: "he", Region: "il", Results: 10},
		AI: AIConfig{
			Provider: "openai",
			OpenAI:   OpenAIConfig{BaseURL: "https://api.openai.com", Model: "gpt-4o-mini"},
			Gemini:   GeminiConfig{BaseURL: "https://generativelanguage.googleapis.com", Model: "gemini-1.5-flash"},
		},
		News: NewsConfig{CacheFile: "data/posts_cache.json", CacheTTLDays: 3},
		Cron: CronConfig{Spec: "0 0 * * 0"},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/knesset-pulse/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Knesset.BaseURL, "KNESSET_BASE_URL")
	envOverride(&c.Search.APIKey, "SERPAPI_KEY")
	envOverride(&c.AI.Provider, "AI_PROVIDER")
	envOverride(&c.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	envOverride(&c.AI.Gemini.APIKey, "GEMINI_API_KEY")
	envOverride(&c.News.UnsplashKey, "UNSPLASH_API_KEY")
	envOverride(&c.Cron.Secret, "CRON_SECRET")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
