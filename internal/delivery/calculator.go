package delivery

// Calculator prices shipping by ordinal distance in a fixed, ordered city
// list. The list order is the distance metric: two adjacent cities are one
// hop apart.
type Calculator struct {
	index       map[string]int
	sameCityFee int64
	perHopFee   int64
	fallbackFee int64
}

// NewCalculator builds a calculator from an ordered city list and fee
// table.
func NewCalculator(cities []string, sameCityFee, perHopFee, fallbackFee int64) *Calculator {
	index := make(map[string]int, len(cities))
	for i, city := range cities {
		index[city] = i
	}
	return &Calculator{
		index:       index,
		sameCityFee: sameCityFee,
		perHopFee:   perHopFee,
		fallbackFee: fallbackFee,
	}
}

// Cost returns the shipping fee from the shop's city to the buyer's city.
// An unknown destination always costs the flat fallback fee. An unknown
// origin resolves to position 0; KnownCity lets callers detect and log
// that case.
func (c *Calculator) Cost(originCity, destCity string) int64 {
	destIdx, ok := c.index[destCity]
	if !ok {
		return c.fallbackFee
	}
	originIdx := c.index[originCity]

	distance := originIdx - destIdx
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 {
		return c.sameCityFee
	}
	return c.perHopFee * int64(distance)
}

// KnownCity reports whether city is part of the configured list.
func (c *Calculator) KnownCity(city string) bool {
	_, ok := c.index[city]
	return ok
}
