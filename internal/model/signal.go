package model

// FactorResult is the outcome of one factor for one symbol.
type FactorResult struct {
	Factor      string   `json:"factor"`
	DisplayName string   `json:"name"`
	Value       *float64 `json:"value"`
	Threshold   string   `json:"threshold"`
	Conclusion  string   `json:"conclusion"`
	IsPassed    bool     `json:"is_passed"`
}

// Category groups factor results in an EvaluationResult.
type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryFundamental Category = "fundamental"
	CategorySentiment   Category = "sentiment"
)

// EvaluationResult is the grid-suitability decision for a symbol.
type EvaluationResult struct {
	Symbol      string                      `json:"symbol"`
	IsSupported bool                        `json:"is_supported"`
	Reason      map[Category][]FactorResult `json:"reason"`
	GridConfig  *GridConfig                 `json:"grid_config"`
}

// AllFactors returns every factor result in technical, fundamental, sentiment order.
func (r *EvaluationResult) AllFactors() []FactorResult {
	var out []FactorResult
	for _, c := range []Category{CategoryTechnical, CategoryFundamental, CategorySentiment} {
		out = append(out, r.Reason[c]...)
	}
	return out
}
