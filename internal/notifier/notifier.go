package notifier

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"bitget-ma-scanner/pkg/types"
)

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	runeCount := utf8.RuneCountInString(content)
	padding := totalWidth - runeCount - 4
	if padding < 0 {
		padding = 0
	}
	return padding
}

// buildTradingURL 根据交易对生成交易链接
func buildTradingURL(symbol string) string {
	return fmt.Sprintf("https://www.bitget.com/futures/usdt/%s", symbol)
}

// directionLabel 信号方向的中文描述
func directionLabel(d types.Direction) string {
	if d == types.DirectionBullish {
		return "金叉"
	}
	return "死叉"
}

func barsLabel(r types.SignalRecord) string {
	if r.BarsSinceCross == nil {
		return "-"
	}
	return fmt.Sprintf("%d根前", *r.BarsSinceCross)
}

// splitByDirection 把信号按方向分组，保持扫描结果的排序
func splitByDirection(records []types.SignalRecord) (bulls, bears []types.SignalRecord) {
	for _, r := range records {
		if r.Direction == types.DirectionBullish {
			bulls = append(bulls, r)
		} else {
			bears = append(bears, r)
		}
	}
	return bulls, bears
}

// Interface 通知接口，推送一次扫描的信号报告
type Interface interface {
	SendReport(result *types.ScanResult, topN int) error
}

// ConsoleNotifier 控制台通知器
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (cn *ConsoleNotifier) SendReport(result *types.ScanResult, topN int) error {
	const width = 80
	border := "╔" + strings.Repeat("═", width) + "╗"
	bottomBorder := "╚" + strings.Repeat("═", width) + "╝"
	blank := "║" + strings.Repeat(" ", width) + "║"

	line := func(content string) {
		fmt.Printf("║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, width)))
	}

	fmt.Println()
	fmt.Println(border)
	line(fmt.Sprintf("📊 MA交叉扫描报告 MA%d × MA%d (%s)", result.FastPeriod, result.SlowPeriod, result.Granularity))
	line(fmt.Sprintf("🕐 %s  耗时 %.1f 秒", result.ScanTime.Format("2006-01-02 15:04:05"), result.Stats.ScanTimeSeconds))
	fmt.Println(blank)
	line(fmt.Sprintf("总扫描 %d  有数据 %d  数据不足 %d  信号 %d（🟢 金叉 %d / 🔴 死叉 %d）",
		result.Stats.TotalInstruments, result.Stats.ProcessedInstruments, result.Stats.InsufficientData,
		result.Stats.ResultsCount, result.Stats.BullishCount, result.Stats.BearishCount))
	fmt.Println(blank)

	bulls, bears := splitByDirection(result.Results)
	printGroup := func(icon, title string, records []types.SignalRecord) {
		if len(records) == 0 {
			return
		}
		line(fmt.Sprintf("%s %s:", icon, title))
		show := len(records)
		if topN > 0 && show > topN {
			show = topN
		}
		for i := 0; i < show; i++ {
			r := records[i]
			line(fmt.Sprintf("  %d. %s %s  24h %+.2f%%  MA距离 %.2f%%  $%.6g",
				i+1, r.Symbol, barsLabel(r), r.ChangePct24h, r.MADistancePct, r.CurrentPrice))
		}
		if len(records) > show {
			line(fmt.Sprintf("  ... 还有%d个信号", len(records)-show))
		}
		fmt.Println(blank)
	}
	printGroup("🟢", "金叉信号", bulls)
	printGroup("🔴", "死叉信号", bears)

	if result.Stats.ResultsCount == 0 {
		line("🤔 本次扫描未找到符合条件的MA交叉信号")
		fmt.Println(blank)
	}

	fmt.Println(bottomBorder)
	fmt.Println()
	return nil
}

// PushPlusNotifier PushPlus通知器
type PushPlusNotifier struct {
	userToken  string
	to         string // 好友令牌，多人用逗号分隔
	enabled    bool
	httpClient *http.Client
}

type PushPlusRequest struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	To       string `json:"to,omitempty"`
}

type PushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data string `json:"data"`
}

func NewPushPlusNotifier(userToken, to string) Interface {
	// 如果没有配置user token，返回控制台通知器
	if userToken == "" {
		fmt.Println("🔧 未配置PushPlus User Token，使用控制台输出模式")
		return NewConsoleNotifier()
	}

	return &PushPlusNotifier{
		userToken: userToken,
		to:        to,
		enabled:   true,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (ppn *PushPlusNotifier) SendReport(result *types.ScanResult, topN int) error {
	if !ppn.enabled {
		return NewConsoleNotifier().SendReport(result, topN)
	}

	title := fmt.Sprintf("📊 MA%d×MA%d 交叉信号 - %d个", result.FastPeriod, result.SlowPeriod, result.Stats.ResultsCount)
	content := ppn.buildHTMLContent(result, topN)

	if err := ppn.sendPushPlusMessage(title, content); err != nil {
		fmt.Printf("❌ PushPlus发送失败: %v，降级为控制台输出\n", err)
		return NewConsoleNotifier().SendReport(result, topN)
	}

	fmt.Printf("✅ PushPlus通知已发送: %d个信号\n", result.Stats.ResultsCount)
	return nil
}

func (ppn *PushPlusNotifier) buildHTMLContent(result *types.ScanResult, topN int) string {
	bulls, bears := splitByDirection(result.Results)

	content := fmt.Sprintf(`
<div style="border: 2px solid #4ecdc4; border-radius: 10px; padding: 20px; margin: 10px; background-color: #f9f9f9;">
    <h2 style="color: #4ecdc4; text-align: center; margin-top: 0;">📊 MA%d × MA%d 交叉扫描 (%s)</h2>
    <div style="background-color: #E3F2FD; padding: 15px; border-radius: 8px; margin: 10px 0;">
        <p style="margin: 5px 0;">🟢 金叉: <strong>%d个</strong>  🔴 死叉: <strong>%d个</strong></p>
        <p style="margin: 5px 0;">🕐 扫描时间: <span style="color: #666;">%s</span>（总扫描%d个，数据不足%d个）</p>
    </div>`,
		result.FastPeriod, result.SlowPeriod, result.Granularity,
		result.Stats.BullishCount, result.Stats.BearishCount,
		result.ScanTime.Format("2006-01-02 15:04:05"),
		result.Stats.TotalInstruments, result.Stats.InsufficientData)

	buildTable := func(title, color string, records []types.SignalRecord) string {
		if len(records) == 0 {
			return ""
		}
		s := fmt.Sprintf(`
    <div style="background-color: white; padding: 15px; border-radius: 8px; margin: 10px 0;">
        <h3 style="color: %s; margin-top: 0;">%s</h3>
        <table style="width: 100%%; border-collapse: collapse;">
            <tr>
                <th style="padding: 8px; text-align: left; border-bottom: 1px solid #ddd;">币种</th>
                <th style="padding: 8px; text-align: right; border-bottom: 1px solid #ddd;">交叉</th>
                <th style="padding: 8px; text-align: right; border-bottom: 1px solid #ddd;">24h涨跌</th>
                <th style="padding: 8px; text-align: right; border-bottom: 1px solid #ddd;">当前价格</th>
            </tr>`, color, title)

		show := len(records)
		if topN > 0 && show > topN {
			show = topN
		}
		for i := 0; i < show; i++ {
			r := records[i]
			s += fmt.Sprintf(`
            <tr>
                <td style="padding: 8px; border-bottom: 1px solid #eee;"><a href="%s" style="color: %s; text-decoration: none;" target="_blank">%s</a></td>
                <td style="padding: 8px; text-align: right; border-bottom: 1px solid #eee;">%s</td>
                <td style="padding: 8px; text-align: right; border-bottom: 1px solid #eee;">%+.2f%%</td>
                <td style="padding: 8px; text-align: right; border-bottom: 1px solid #eee;">$%.6g</td>
            </tr>`,
				buildTradingURL(r.Symbol), color, r.Symbol, barsLabel(r), r.ChangePct24h, r.CurrentPrice)
		}
		if len(records) > show {
			s += fmt.Sprintf(`
            <tr><td colspan="4" style="padding: 8px; text-align: center; color: #666; font-style: italic;">... 还有%d个信号</td></tr>`, len(records)-show)
		}
		s += `
        </table>
    </div>`
		return s
	}

	content += buildTable("🟢 金叉信号", "#00C851", bulls)
	content += buildTable("🔴 死叉信号", "#FF4444", bears)
	content += `
</div>`
	return content
}

func (ppn *PushPlusNotifier) sendPushPlusMessage(title, content string) error {
	reqData := PushPlusRequest{
		Token:    ppn.userToken,
		Title:    title,
		Content:  content,
		Template: "html",
		To:       ppn.to,
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("序列化请求数据失败: %v", err)
	}

	resp, err := ppn.httpClient.Post(
		"http://www.pushplus.plus/send",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	var pushResp PushPlusResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if pushResp.Code != 200 {
		return fmt.Errorf("PushPlus API错误: %s", pushResp.Msg)
	}
	return nil
}

// DingTalkNotifier 钉钉通知器
type DingTalkNotifier struct {
	webhookURL string
	secret     string
	enabled    bool
	httpClient *http.Client
}

// DingTalkMessage 钉钉消息结构
type DingTalkMessage struct {
	MsgType  string            `json:"msgtype"`
	Markdown *DingTalkMarkdown `json:"markdown,omitempty"`
}

type DingTalkMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DingTalkResponse 钉钉API响应
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func NewDingTalkNotifier(webhookURL, secret string) Interface {
	// 如果没有配置webhook URL，返回控制台通知器
	if webhookURL == "" {
		fmt.Println("🔧 未配置钉钉Webhook URL，使用控制台输出模式")
		return NewConsoleNotifier()
	}

	if secret == "" {
		fmt.Println("⚠️ 钉钉通知已配置，但未设置secret（建议配置加签验证）")
	}

	return &DingTalkNotifier{
		webhookURL: webhookURL,
		secret:     secret,
		enabled:    true,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (dtn *DingTalkNotifier) SendReport(result *types.ScanResult, topN int) error {
	if !dtn.enabled {
		return NewConsoleNotifier().SendReport(result, topN)
	}

	title := fmt.Sprintf("📊 MA%d×MA%d 交叉信号", result.FastPeriod, result.SlowPeriod)
	content := dtn.buildMarkdownContent(result, topN)

	if err := dtn.sendDingTalkMessage(title, content); err != nil {
		fmt.Printf("❌ 钉钉发送失败: %v，降级为控制台输出\n", err)
		return NewConsoleNotifier().SendReport(result, topN)
	}

	fmt.Printf("✅ 钉钉通知已发送: %d个信号\n", result.Stats.ResultsCount)
	return nil
}

// generateSignature 生成钉钉加签
func (dtn *DingTalkNotifier) generateSignature(timestamp int64) string {
	// 按照文档要求: timestamp + "\n" + secret
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, dtn.secret)

	h := hmac.New(sha256.New, []byte(dtn.secret))
	h.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return url.QueryEscape(signature)
}

// buildSignedURL 构建带签名的URL
func (dtn *DingTalkNotifier) buildSignedURL() string {
	if dtn.secret == "" {
		return dtn.webhookURL
	}

	timestamp := time.Now().UnixNano() / 1e6
	separator := "&"
	if !strings.Contains(dtn.webhookURL, "?") {
		separator = "?"
	}
	return fmt.Sprintf("%s%stimestamp=%d&sign=%s",
		dtn.webhookURL, separator, timestamp, dtn.generateSignature(timestamp))
}

func (dtn *DingTalkNotifier) buildMarkdownContent(result *types.ScanResult, topN int) string {
	bulls, bears := splitByDirection(result.Results)

	var b strings.Builder
	fmt.Fprintf(&b, "## 📊 MA%d × MA%d 交叉扫描 (%s)\n\n", result.FastPeriod, result.SlowPeriod, result.Granularity)
	fmt.Fprintf(&b, "**扫描时间**: %s  \n", result.ScanTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**信号统计**: 🟢 金叉 %d个  🔴 死叉 %d个（总扫描%d个，数据不足%d个）\n\n",
		result.Stats.BullishCount, result.Stats.BearishCount,
		result.Stats.TotalInstruments, result.Stats.InsufficientData)

	writeGroup := func(title string, records []types.SignalRecord) {
		if len(records) == 0 {
			return
		}
		fmt.Fprintf(&b, "### %s\n\n", title)
		show := len(records)
		if topN > 0 && show > topN {
			show = topN
		}
		for i := 0; i < show; i++ {
			r := records[i]
			fmt.Fprintf(&b, "%d. [%s](%s) %s，24h %+.2f%%，价格 $%.6g  \n",
				i+1, r.Symbol, buildTradingURL(r.Symbol), barsLabel(r), r.ChangePct24h, r.CurrentPrice)
		}
		if len(records) > show {
			fmt.Fprintf(&b, "... 还有%d个信号  \n", len(records)-show)
		}
		b.WriteString("\n")
	}
	writeGroup("🟢 金叉信号", bulls)
	writeGroup("🔴 死叉信号", bears)

	if result.Stats.ResultsCount == 0 {
		b.WriteString("🤔 本次扫描未找到符合条件的MA交叉信号\n")
	}
	return b.String()
}

func (dtn *DingTalkNotifier) sendDingTalkMessage(title, content string) error {
	msg := DingTalkMessage{
		MsgType: "markdown",
		Markdown: &DingTalkMarkdown{
			Title: title,
			Text:  content,
		},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求数据失败: %v", err)
	}

	resp, err := dtn.httpClient.Post(dtn.buildSignedURL(), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	var dtResp DingTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&dtResp); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if dtResp.ErrCode != 0 {
		return fmt.Errorf("钉钉API错误: %s", dtResp.ErrMsg)
	}
	return nil
}
