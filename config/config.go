package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledger/logger"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Expenses  ExpensesConfig  `mapstructure:"expenses"`
	Currency  CurrencyConfig  `mapstructure:"currency"`
	Email     EmailConfig     `mapstructure:"email"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	FilePath   string `mapstructure:"file_path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig MySQL 配置，仅 storage.driver=mysql 时使用
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// ExpensesConfig 业务策略
type ExpensesConfig struct {
	AllowEditPaid bool `mapstructure:"allow_edit_paid"`
}

// CurrencyConfig 金额显示配置
type CurrencyConfig struct {
	Code    string `mapstructure:"code"`
	Locale  string `mapstructure:"locale"`
	Display string `mapstructure:"display"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	NotifyTo []string `mapstructure:"notify_to"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// RateLimitConfig 写接口限流配置
type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Window 限流时间窗口
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

var validDrivers = map[string]bool{"memory": true, "file": true, "sqlite": true, "mysql": true}
var validDisplays = map[string]bool{"iso": true, "symbol": true, "narrow": true}

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", configPath, err)
		}
		logger.Log.Info().Str("file", configPath).Msg("已合并外部配置文件")
	} else {
		external := viper.New()
		external.SetConfigName("config")
		external.SetConfigType("yaml")
		external.AddConfigPath(".")
		external.AddConfigPath("./config")
		external.AddConfigPath("/etc/ledger")
		external.AddConfigPath("$HOME/.ledger")

		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				logger.Log.Warn().Err(err).Msg("合并外部配置失败")
			} else {
				logger.Log.Info().Str("file", external.ConfigFileUsed()).Msg("已合并外部配置文件")
			}
		}
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// MustLoadConfig 加载配置，失败则 panic
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	return cfg
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("配置未初始化，请先调用 LoadConfig")
	}
	return GlobalConfig
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Currency.Code = strings.ToUpper(strings.TrimSpace(c.Currency.Code))
	c.Currency.Display = strings.ToLower(strings.TrimSpace(c.Currency.Display))
	if c.Server.Port != "" && !strings.HasPrefix(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 60
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	port := strings.TrimPrefix(c.Server.Port, ":")
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("无效的端口: %q", c.Server.Port)
	}
	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("不支持的存储驱动: %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "file" && c.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path 不能为空")
	}
	if c.Storage.Driver == "sqlite" && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path 不能为空")
	}
	if _, err := currency.ParseISO(c.Currency.Code); err != nil {
		return fmt.Errorf("无效的货币代码 %q: %w", c.Currency.Code, err)
	}
	if _, err := language.Parse(c.Currency.Locale); err != nil {
		return fmt.Errorf("无效的区域设置 %q: %w", c.Currency.Locale, err)
	}
	if !validDisplays[c.Currency.Display] {
		return fmt.Errorf("无效的货币显示方式: %q", c.Currency.Display)
	}
	if c.Email.Enabled && len(c.Email.NotifyTo) == 0 {
		return fmt.Errorf("启用邮件通知时 email.notify_to 不能为空")
	}
	return nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	c := GlobalConfig
	ev := logger.Log.Info().
		Str("port", c.Server.Port).
		Str("mode", c.Server.Mode).
		Str("storage", c.Storage.Driver).
		Bool("allow_edit_paid", c.Expenses.AllowEditPaid).
		Str("currency", c.Currency.Code).
		Bool("email", c.Email.Enabled)
	switch c.Storage.Driver {
	case "file":
		ev = ev.Str("path", c.Storage.FilePath)
	case "sqlite":
		ev = ev.Str("path", c.Storage.SQLitePath)
	case "mysql":
		ev = ev.Str("database", fmt.Sprintf("%s@%s:%s/%s", c.Database.Username, c.Database.Host, c.Database.Port, c.Database.DBName))
	}
	ev.Msg("当前配置")
}
