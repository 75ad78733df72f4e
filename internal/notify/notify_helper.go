package notify

import (
	"context"
	"fmt"
	"strings"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/utils/timeutil"
)

type field struct {
	label, value string
}

// formatAlert 标题 + 字段列表，空值字段不输出
func formatAlert(level, title string, fields []field) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*\\[%s\\] %s*\n", escapeMarkdown(level), escapeMarkdown(title)))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("*%s:* %s\n", escapeMarkdown(f.label), escapeMarkdown(f.value)))
	}
	return sb.String()
}

// ToleranceMismatch 对账差异告警，实现 ledger.Alerter
func (t *Telegram) ToleranceMismatch(ctx context.Context, ev dto.ToleranceMismatchEvent) error {
	text := formatAlert("WARN", "对账差异", []field{
		{"ERP 订单", ev.ErpOrderID},
		{"平台", ev.Marketplace},
		{"平台单号", ev.MarketplaceOrderID},
		{"计算净额", ev.Computed.StringFixed(2)},
		{"平台结算", ev.Reported.StringFixed(2)},
		{"差额", ev.Difference.StringFixed(2)},
		{"容差", ev.Tolerance.StringFixed(2)},
		{"发现时间", ev.DetectedAt.In(timeutil.Location()).Format("2006-01-02 15:04:05")},
	})
	return t.Send(ctx, text)
}

// BreakerTripped 平台接口熔断告警，作为 health.Manager.OnTrip
func (t *Telegram) BreakerTripped(marketplace string, rate float64) {
	t.SendAsync(formatAlert("ERROR", "平台接口熔断", []field{
		{"平台", marketplace},
		{"成功率", fmt.Sprintf("%.1f%%", rate)},
	}))
}

// AmbiguousMatch 启发式关联多候选，作为 linker.Service.OnAmbiguous
func (t *Telegram) AmbiguousMatch(m dto.AmbiguousMatch) {
	t.SendAsync(formatAlert("INFO", "订单关联待人工确认", []field{
		{"ERP 订单", m.ErpOrderID},
		{"平台", m.Marketplace},
		{"候选", strings.Join(m.CandidateIDs, ", ")},
	}))
}

// escapeMarkdown 转义 Telegram MarkdownV2 特殊字符
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}
