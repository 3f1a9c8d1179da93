package factor

// Factor names in catalog order.
const (
	NamePERatio    = "pe_ratio"
	NameVolatility = "volatility"
	NameVolume     = "volume"
	NameTrend      = "trend"
	NamePriceRange = "price_range"
	NameMarketCap  = "market_cap"
	NameTurnover   = "turnover"
)

var catalog = []struct {
	name string
	ctor Constructor
}{
	{NamePERatio, NewPERatio},
	{NameVolatility, NewVolatility},
	{NameVolume, NewVolume},
	{NameTrend, NewTrend},
	{NamePriceRange, NewPriceRange},
	{NameMarketCap, NewMarketCap},
	{NameTurnover, NewTurnover},
}

var registry = func() map[string]Constructor {
	m := make(map[string]Constructor, len(catalog))
	for _, e := range catalog {
		m[e.name] = e.ctor
	}
	return m
}()

// Get returns the constructor registered under name. The boolean is false for unknown names.
func Get(name string) (Constructor, bool) {
	c, ok := registry[name]
	return c, ok
}

// Names returns every registered factor name in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, e := range catalog {
		names[i] = e.name
	}
	return names
}
