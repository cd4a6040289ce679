package testutils

import (
	"github.com/nerdneilsfield/jurnal-converter/internal/config"
)

// CreateTestConfig 创建通用测试配置
func CreateTestConfig(statsPath string) *config.Config {
	cfg := config.NewDefaultConfig()

	// 日志配置
	cfg.Debug = false
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	// 统计配置，空路径表示关闭
	cfg.StatsEnabled = statsPath != ""
	cfg.StatsPath = statsPath

	cfg.BatchConcurrency = 2
	return cfg
}
