package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bitget-ma-scanner/internal/analyzer"
	"bitget-ma-scanner/internal/fetcher"
	"bitget-ma-scanner/internal/notifier"
	"bitget-ma-scanner/internal/scanner"
	"bitget-ma-scanner/internal/storage"
	"bitget-ma-scanner/pkg/types"
)

// App 应用程序管理器
type App struct {
	config *types.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	scanner       *scanner.Scanner
	notifyService notifier.Interface
	stateManager  *storage.AlertStateManager
}

// NewApp 创建应用程序实例
func NewApp(config *types.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 初始化各模块并启动扫描
func (app *App) Start() error {
	zap.L().Info("🚀 Bitget MA Scanner 启动中...")

	// 探测可用端点
	prober := fetcher.NewProber(app.config.API.ProductType, app.config.API.ProbeRetries, app.config.Network)
	endpoint, err := prober.SelectEndpoint(app.config.API.Endpoints)
	if err != nil {
		return fmt.Errorf("端点探测失败: %w", err)
	}

	// 初始化各模块
	client := fetcher.NewMarketClient(endpoint, app.config.API.ProductType, app.config.Network)
	app.scanner = scanner.New(client)
	app.scanner.SetProgressFunc(func(done, total int) {
		if done%50 == 0 || done == total {
			zap.L().Info("📥 K线抓取进度",
				zap.Int("done", done),
				zap.Int("total", total))
		}
	})
	app.stateManager = storage.NewAlertStateManager(app.config.Redis)

	// 根据配置选择通知服务（优先级：钉钉 > PushPlus > 控制台）
	if app.config.DingTalk.WebhookURL != "" {
		app.notifyService = notifier.NewDingTalkNotifier(app.config.DingTalk.WebhookURL, app.config.DingTalk.Secret)
	} else if app.config.PushPlus.UserToken != "" {
		app.notifyService = notifier.NewPushPlusNotifier(app.config.PushPlus.UserToken, app.config.PushPlus.To)
	} else {
		app.notifyService = notifier.NewConsoleNotifier()
	}

	if !app.config.Watch {
		// 单次扫描模式
		return app.runScan()
	}

	// 循环扫描模式
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.watchLoop()
	}()

	zap.L().Info("✅ Bitget MA Scanner 已启动",
		zap.Duration("interval", app.config.Fetch.Interval))
	return nil
}

// Stop 停止应用程序
func (app *App) Stop() {
	app.cancel()

	// 等待所有goroutine结束，最多等待30秒
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("✅ Bitget MA Scanner 已安全关闭")
	case <-time.After(30 * time.Second):
		zap.L().Warn("⚠️ 强制关闭超时")
	}
}

// WaitForShutdown 等待关闭信号
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zap.L().Info("🛑 收到停止信号，正在优雅关闭...")
}

// watchLoop 按固定间隔循环扫描
func (app *App) watchLoop() {
	interval := app.config.Fetch.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	// 启动时先执行一次
	if err := app.runScan(); err != nil {
		zap.L().Error("❌ 扫描失败", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			if err := app.runScan(); err != nil {
				zap.L().Error("❌ 扫描失败", zap.Error(err))
			}
		}
	}
}

// runScan 执行一轮完整扫描并输出报告
func (app *App) runScan() error {
	result, err := app.scanner.RunScan(app.ctx, app.config.ScanParams(), nil)
	if err != nil {
		return err
	}

	// 控制台始终输出完整报告
	console := notifier.NewConsoleNotifier()
	if err := console.SendReport(result, app.config.Report.TopN); err != nil {
		zap.L().Warn("⚠️ 控制台报告输出失败", zap.Error(err))
	}

	// CSV导出
	if app.config.Report.CSVDir != "" {
		if err := app.exportCSV(result); err != nil {
			zap.L().Warn("⚠️ CSV导出失败", zap.Error(err))
		}
	}

	// 远程通知：按冷却期去重后推送
	if _, isConsole := app.notifyService.(*notifier.ConsoleNotifier); !isConsole {
		app.notify(result)
	}
	return nil
}

// notify 去重后推送远程通知，避免同一信号反复打扰
func (app *App) notify(result *types.ScanResult) {
	cooldown := app.config.Alert.Cooldown
	fresh := make([]types.SignalRecord, 0, len(result.Results))
	for _, r := range result.Results {
		if app.stateManager.ShouldAlert(r.Symbol, r.Direction, cooldown) {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		zap.L().Info("🔕 信号均在冷却期内，跳过远程通知")
		return
	}

	deduped := *result
	deduped.Results = fresh
	deduped.Stats.ResultsCount = len(fresh)
	deduped.Stats.BullishCount = 0
	deduped.Stats.BearishCount = 0
	for _, r := range fresh {
		if r.Direction == types.DirectionBullish {
			deduped.Stats.BullishCount++
		} else {
			deduped.Stats.BearishCount++
		}
	}

	if err := app.notifyService.SendReport(&deduped, app.config.Report.TopN); err != nil {
		zap.L().Warn("⚠️ 远程通知发送失败", zap.Error(err))
		return
	}
	for _, r := range fresh {
		app.stateManager.MarkAlerted(r.Symbol, r.Direction, cooldown)
	}
}

// exportCSV 将金叉/死叉信号分别导出为CSV文件
func (app *App) exportCSV(result *types.ScanResult) error {
	dir := app.config.Report.CSVDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}

	var bulls, bears []types.SignalRecord
	for _, r := range result.Results {
		if r.Direction == types.DirectionBullish {
			bulls = append(bulls, r)
		} else {
			bears = append(bears, r)
		}
	}

	stamp := result.ScanTime.Format("20060102_150405")
	writeOne := func(name string, records []types.SignalRecord) error {
		if len(records) == 0 {
			return nil
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, stamp))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := analyzer.WriteCSV(f, records); err != nil {
			return err
		}
		zap.L().Info("💾 CSV已导出", zap.String("path", path), zap.Int("count", len(records)))
		return nil
	}

	if err := writeOne("golden_cross", bulls); err != nil {
		return err
	}
	return writeOne("death_cross", bears)
}
