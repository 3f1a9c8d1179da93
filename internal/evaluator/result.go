package evaluator

import (
	"fmt"
	"strings"

	"GridSentinel/internal/model"
)

// Result wraps the factor results of one evaluation run.
type Result struct {
	Symbol  string
	results []model.FactorResult
	passed  int
}

func NewResult(symbol string, results []model.FactorResult) *Result {
	r := &Result{Symbol: symbol, results: results}
	for _, fr := range results {
		if fr.IsPassed {
			r.passed++
		}
	}
	return r
}

func (r *Result) Total() int  { return len(r.results) }
func (r *Result) Passed() int { return r.passed }
func (r *Result) Failed() int { return len(r.results) - r.passed }

// PassRate is Passed/Total, or 0 when nothing was evaluated.
func (r *Result) PassRate() float64 {
	if len(r.results) == 0 {
		return 0
	}
	return float64(r.passed) / float64(len(r.results))
}

// AllPassed reports whether every factor passed. It is true when nothing was evaluated.
func (r *Result) AllPassed() bool {
	return r.passed == len(r.results)
}

// Factors returns the results in evaluation order.
func (r *Result) Factors() []model.FactorResult {
	return append([]model.FactorResult(nil), r.results...)
}

// Get returns the result for the named factor.
func (r *Result) Get(name string) (model.FactorResult, bool) {
	for _, fr := range r.results {
		if fr.Factor == name {
			return fr, true
		}
	}
	return model.FactorResult{}, false
}

// Report is the aggregated view used for API responses.
type Report struct {
	Symbol       string               `json:"symbol"`
	TotalFactors int                  `json:"total_factors"`
	PassedCount  int                  `json:"passed_count"`
	FailedCount  int                  `json:"failed_count"`
	PassRate     float64              `json:"pass_rate"`
	Results      []model.FactorResult `json:"results"`
}

func (r *Result) Report() Report {
	return Report{
		Symbol:       r.Symbol,
		TotalFactors: r.Total(),
		PassedCount:  r.Passed(),
		FailedCount:  r.Failed(),
		PassRate:     r.PassRate(),
		Results:      r.Factors(),
	}
}

// Summary renders a short multi-line description of the run.
func (r *Result) Summary() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("股票%s评估结果：\n", r.Symbol))
	b.WriteString(fmt.Sprintf("总计评估%d个因子\n", r.Total()))
	b.WriteString(fmt.Sprintf("通过%d个，未通过%d个\n", r.Passed(), r.Failed()))
	b.WriteString(fmt.Sprintf("通过率：%.2f%%", r.PassRate()*100))
	return b.String()
}

func (r *Result) String() string { return r.Summary() }
