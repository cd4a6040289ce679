package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigName 配置文件名（不含扩展名），在家目录和当前目录中查找
	ConfigName = ".jurnal"
	// EnvPrefix 环境变量前缀，例如 JURNAL_LANGUAGE=id
	EnvPrefix = "JURNAL"
)

// Config 保存转换器的所有配置
type Config struct {
	Debug     bool   `mapstructure:"debug" json:"debug" yaml:"debug"`
	LogLevel  string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`    // debug / info / warn
	LogFormat string `mapstructure:"log_format" json:"log_format" yaml:"log_format"` // json / console
	LogFile   string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`       // 为空时只输出到 stderr

	Language         string `mapstructure:"language" json:"language" yaml:"language"`                            // 标签语言: en / id
	LabelsFile       string `mapstructure:"labels_file" json:"labels_file" yaml:"labels_file"`                   // 覆盖标签的 TOML 文件
	NormalizeUnicode bool   `mapstructure:"normalize_unicode" json:"normalize_unicode" yaml:"normalize_unicode"` // 提取文本后做 NFC 规范化

	StatsEnabled bool   `mapstructure:"stats_enabled" json:"stats_enabled" yaml:"stats_enabled"`
	StatsPath    string `mapstructure:"stats_path" json:"stats_path" yaml:"stats_path"`

	BatchConcurrency int    `mapstructure:"batch_concurrency" json:"batch_concurrency" yaml:"batch_concurrency"` // batch 子命令的并发数
	OutputFormat     string `mapstructure:"output_format" json:"output_format" yaml:"output_format"`             // json / yaml / table
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Debug:            false,
		LogLevel:         "info",
		LogFormat:        "json",
		LogFile:          "",
		Language:         LanguageEnglish,
		LabelsFile:       "",
		NormalizeUnicode: false,
		StatsEnabled:     true,
		StatsPath:        getDefaultStatsPath(),
		BatchConcurrency: 4,
		OutputFormat:     "json",
	}
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// .env 只补充环境变量，不覆盖已有的
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Language {
	case LanguageEnglish, LanguageIndonesian:
	default:
		return fmt.Errorf("unsupported language %q (want %q or %q)", c.Language, LanguageEnglish, LanguageIndonesian)
	}
	switch c.OutputFormat {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("unsupported output format %q", c.OutputFormat)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be at least 1, got %d", c.BatchConcurrency)
	}
	return nil
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ConfigName+".yaml")
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	// 添加所有配置项
	if err := v.MergeConfigMap(structToMap(config)); err != nil {
		return err
	}

	// 创建父目录（如果不存在）
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return v.WriteConfig()
}

// getDefaultStatsPath 获取默认统计文件路径
func getDefaultStatsPath() string {
	// 优先使用系统配置目录
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "jurnal", "stats.json")
	}

	// 如果无法获取，使用用户主目录
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".jurnal", "stats.json")
	}

	// 最后的兜底方案
	return "./jurnal-stats.json"
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	for key, value := range structToMap(d) {
		v.SetDefault(key, value)
	}
}

// structToMap 将结构体转换为map
func structToMap(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"debug":             config.Debug,
		"log_level":         config.LogLevel,
		"log_format":        config.LogFormat,
		"log_file":          config.LogFile,
		"language":          config.Language,
		"labels_file":       config.LabelsFile,
		"normalize_unicode": config.NormalizeUnicode,
		"stats_enabled":     config.StatsEnabled,
		"stats_path":        config.StatsPath,
		"batch_concurrency": config.BatchConcurrency,
		"output_format":     config.OutputFormat,
	}
}
