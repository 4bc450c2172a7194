package types

import "time"

// Config 主配置结构，加载后只读，显式传入各组件
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Network  NetworkConfig  `mapstructure:"network"`
	Redis    RedisConfig    `mapstructure:"redis"`
	DingTalk DingTalkConfig `mapstructure:"dingtalk"`
	PushPlus PushPlusConfig `mapstructure:"pushplus"`
	API      APIConfig      `mapstructure:"api"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Filter   FilterOptions  `mapstructure:"filter"`
	Report   ReportConfig   `mapstructure:"report"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Watch    bool           `mapstructure:"watch"` // true时按fetch.interval循环扫描
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出路径名
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// NetworkConfig 网络配置
type NetworkConfig struct {
	Proxy   string        `mapstructure:"proxy"`   // HTTP代理地址，如 http://127.0.0.1:7890
	Timeout time.Duration `mapstructure:"timeout"` // HTTP客户端整体超时
}

// RedisConfig Redis配置，未配置url时纯内存运行
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DingTalkConfig 钉钉机器人配置
type DingTalkConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}

// PushPlusConfig PushPlus配置
type PushPlusConfig struct {
	UserToken string `mapstructure:"user_token"`
	To        string `mapstructure:"to"` // 好友令牌，多人用逗号分隔
}

// APIConfig 交易所接口配置
type APIConfig struct {
	Endpoints    []string `mapstructure:"endpoints"`     // 候选端点，按顺序探测
	ProductType  string   `mapstructure:"product_type"`  // 产品类型，默认 usdt-futures
	CandleLimit  int      `mapstructure:"candle_limit"`  // 单次拉取的K线数量
	ProbeRetries int      `mapstructure:"probe_retries"` // 每个端点的探测次数
}

// ScanConfig 扫描参数配置
type ScanConfig struct {
	Granularity  string        `mapstructure:"granularity"`   // K线粒度：1m 5m 15m 30m 1H 4H 1D
	FastPeriod   int           `mapstructure:"fast_period"`   // 快线周期
	SlowPeriod   int           `mapstructure:"slow_period"`   // 慢线周期
	LookbackBars int           `mapstructure:"lookback_bars"` // 交叉确认窗口（最近N根K线）
	Workers      int           `mapstructure:"workers"`       // 并发抓取worker数
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // 单个交易对的抓取超时
}

// ReportConfig 报告输出配置
type ReportConfig struct {
	SortBy string `mapstructure:"sort_by"` // 排序键，见 SortBy* 常量
	CSVDir string `mapstructure:"csv_dir"` // 非空时导出CSV到该目录
	TopN   int    `mapstructure:"top_n"`   // 控制台/通知展示的信号条数上限
}

// FetchConfig 循环扫描配置
type FetchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// AlertConfig 通知去重配置
type AlertConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"` // 同一交易对同方向信号的静默期
}

// ScanParams 由配置组装扫描参数
func (c *Config) ScanParams() ScanParams {
	return ScanParams{
		Granularity:  c.Scan.Granularity,
		FastPeriod:   c.Scan.FastPeriod,
		SlowPeriod:   c.Scan.SlowPeriod,
		LookbackBars: c.Scan.LookbackBars,
		Workers:      c.Scan.Workers,
		CandleLimit:  c.API.CandleLimit,
		FetchTimeout: c.Scan.FetchTimeout,
		Filter:       c.Filter,
		SortBy:       c.Report.SortBy,
	}
}
