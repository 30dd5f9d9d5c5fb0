package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置（storage.driver=postgres 时使用）
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（快照存储与导入限流共用）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// 快照存储驱动
const (
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

// StorageConfig 会话快照存储配置
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
}

// CatalogConfig 课程目录导入配置
type CatalogConfig struct {
	MaxUploadBytes   int64         `mapstructure:"max_upload_bytes"`
	ParseCacheSize   int           `mapstructure:"parse_cache_size"`
	ImportRateLimit  int           `mapstructure:"import_rate_limit"` // 0 表示不限流
	ImportRateWindow time.Duration `mapstructure:"import_rate_window"`
}

// ExportConfig 课表导出配置
type ExportConfig struct {
	TermWeeks int    `mapstructure:"term_weeks"`
	Timezone  string `mapstructure:"timezone"`
}

// Location 解析导出时区
func (c *ExportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "class_scheduler")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Tehran")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", StorageDriverPostgres)
	v.SetDefault("storage.key", "planner_state")

	v.SetDefault("catalog.max_upload_bytes", 20<<20) // 20MB
	v.SetDefault("catalog.parse_cache_size", 4096)
	v.SetDefault("catalog.import_rate_limit", 10)
	v.SetDefault("catalog.import_rate_window", "1m")

	v.SetDefault("export.term_weeks", 16)
	v.SetDefault("export.timezone", "Asia/Tehran")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverRedis, StorageDriverMemory:
	default:
		return fmt.Errorf("配置校验失败: storage.driver 只能是 postgres / redis / memory，当前为 %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("配置校验失败: storage.key 不能为空")
	}
	if c.Catalog.MaxUploadBytes <= 0 {
		return fmt.Errorf("配置校验失败: catalog.max_upload_bytes 必须大于 0")
	}
	if c.Catalog.ImportRateLimit < 0 {
		return fmt.Errorf("配置校验失败: catalog.import_rate_limit 不能为负数")
	}
	if c.Catalog.ImportRateLimit > 0 && c.Catalog.ImportRateWindow <= 0 {
		return fmt.Errorf("配置校验失败: catalog.import_rate_window 必须大于 0")
	}
	if c.Export.TermWeeks <= 0 || c.Export.TermWeeks > 53 {
		return fmt.Errorf("配置校验失败: export.term_weeks 必须在 1-53 之间")
	}
	if _, err := c.Export.Location(); err != nil {
		return fmt.Errorf("配置校验失败: export.timezone 无效: %w", err)
	}
	return nil
}
