package model

// GridConfig describes a symmetric price grid around a current price.
type GridConfig struct {
	LowerBound      float64   `json:"lower_bound"`
	UpperBound      float64   `json:"upper_bound"`
	GridCount       int       `json:"grid_count"`
	GridSpacingMode string    `json:"grid_spacing_mode"`
	GridSpacingPct  float64   `json:"grid_spacing_pct"`
	CurrentPrice    float64   `json:"current_price"`
	GridLevels      []float64 `json:"grid_levels"`
}
