package main

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/cli"
	"github.com/nerdneilsfield/jurnal-converter/internal/logger"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// 创建根命令
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	// 执行命令；结果信封已经打印过的失败不再重复记录
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			log := logger.NewLogger(false)
			log.Error("command failed", zap.Error(err))
			_ = log.Sync()
		}
		os.Exit(1)
	}
}
