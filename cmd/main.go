package main

import (
	"log"

	"go.uber.org/zap"

	"bitget-ma-scanner/pkg/config"
	"bitget-ma-scanner/pkg/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	// 初始化日志
	if _, err := logger.Init(cfg.Log); err != nil {
		log.Fatal("初始化日志失败:", err)
	}
	defer zap.L().Sync()

	app := NewApp(cfg)
	if err := app.Start(); err != nil {
		zap.L().Fatal("❌ 启动失败", zap.Error(err))
	}

	if cfg.Watch {
		// 循环模式下等待中断信号
		app.WaitForShutdown()
	}
	app.Stop()
}
