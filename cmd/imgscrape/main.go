package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/imgscrape/internal/core"
	"github.com/rs/zerolog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// runScrape 默认的运行器: 启动真实浏览器
func runScrape(ctx context.Context, config *core.Config, opts core.RunOptions, logger zerolog.Logger) error {
	_, err := core.Run(ctx, config, opts, logger)
	return err
}

func main() {
	// Ctrl+C / SIGTERM 取消context,检索循环在两个缩略图之间退出并关闭浏览器
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := execute(ctx, newRootCmd(runScrape), os.Args[1:])
	stop()
	os.Exit(code)
}
