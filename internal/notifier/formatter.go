package notifier

import (
	"fmt"
	"strings"
	"time"

	"GridSentinel/internal/evaluator"
	"GridSentinel/internal/factor"
	"GridSentinel/internal/model"
)

var categoryLabels = []struct {
	cat   model.Category
	label string
}{
	{model.CategoryTechnical, "技术面"},
	{model.CategoryFundamental, "基本面"},
	{model.CategorySentiment, "情绪面"},
}

func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

// FormatEvaluationReport formats a grid-suitability evaluation into a Telegram message.
// run may be nil, in which case the pass-rate line is computed from res.
func FormatEvaluationReport(res *model.EvaluationResult, run *evaluator.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>GridSentinel 评估</b> | %s | %s\n\n", res.Symbol, time.Now().Format("2006-01-02")))

	if res.IsSupported {
		b.WriteString("✅ 适合网格交易\n\n")
	} else {
		b.WriteString("❌ 不适合网格交易\n\n")
	}

	for _, c := range categoryLabels {
		results := res.Reason[c.cat]
		if len(results) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("📈 <b>%s:</b>\n", c.label))
		for _, fr := range results {
			mark := "✗"
			if fr.IsPassed {
				mark = "✓"
			}
			b.WriteString(fmt.Sprintf("  %s %s: %s (阈值 %s) %s\n",
				mark, fr.DisplayName, formatValue(fr.Value), fr.Threshold, fr.Conclusion))
		}
	}

	if run == nil {
		run = evaluator.NewResult(res.Symbol, res.AllFactors())
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  通过 %d/%d，通过率 %.2f%%\n", run.Passed(), run.Total(), run.PassRate()*100))

	if gc := res.GridConfig; gc != nil {
		b.WriteString("\n💰 <b>网格参数:</b>\n")
		b.WriteString(fmt.Sprintf("   区间: %.2f ~ %.2f\n", gc.LowerBound, gc.UpperBound))
		b.WriteString(fmt.Sprintf("   格数: %d | 间距: %.1f%% (%s)\n", gc.GridCount, gc.GridSpacingPct, gc.GridSpacingMode))
		b.WriteString(fmt.Sprintf("   当前价格: %.2f\n", gc.CurrentPrice))
	}

	return b.String()
}

// FormatStrategyStatus formats a paper strategy snapshot for display.
func FormatStrategyStatus(snap model.StrategySnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>网格策略状态</b> | %s\n\n", snap.Symbol))
	b.WriteString(fmt.Sprintf("模式: %s\n", snap.Mode))
	if snap.ExitReason != "" {
		b.WriteString(fmt.Sprintf("退出原因: %s\n", snap.ExitReason))
	}
	b.WriteString(fmt.Sprintf("最新价格: %.2f\n", snap.LastPrice))
	b.WriteString(fmt.Sprintf("现金: %.2f\n", snap.CashQuote))
	b.WriteString(fmt.Sprintf("持仓: %.4f (%d笔)\n", snap.InventoryBase, len(snap.Lots)))
	b.WriteString(fmt.Sprintf("已实现盈亏: %+.2f\n", snap.RealizedPnLQuote))
	b.WriteString(fmt.Sprintf("挂单数: %d\n", snap.OpenOrders))
	if !snap.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("更新时间: %s\n", snap.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatFactorList lists the registered factors and whether cfg enables them.
func FormatFactorList(cfg *factor.Config) string {
	var b strings.Builder
	b.WriteString("🧮 <b>因子列表</b>\n\n")
	for _, name := range factor.Names() {
		state := "停用"
		if cfg.IsFactorEnabled(name) {
			state = "启用"
		}
		b.WriteString(fmt.Sprintf("  %s: %s\n", name, state))
	}
	if cfg.Source != "" {
		b.WriteString(fmt.Sprintf("\n配置文件: %s\n", cfg.Source))
	}
	return b.String()
}
