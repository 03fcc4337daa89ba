package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/stockbot/internal/types"
)

// DataGenerator generates daily price records for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how daily records are generated.
type GeneratorConfig struct {
	// StartDate is the date of the first record
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift spread over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average daily volume
	VolumeBase int64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration: one year of trading days.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.5,
	}
}

// Generate creates daily records following a geometric Brownian motion model.
// Each day opens at the previous close.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.DailyRecord {
	records := make([]types.DailyRecord, config.Count)
	currentPrice := config.InitialPrice
	currentDate := config.StartDate

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, close) * (1 - g.rng.Float64()*config.Volatility*0.5)

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := int64(float64(config.VolumeBase) * volumeVariation)
		if volume < 0 {
			volume = 0
		}

		records[i] = types.DailyRecord{
			Date:     currentDate,
			Open:     roundToDecimals(open, 4),
			High:     roundToDecimals(high, 4),
			Low:      roundToDecimals(low, 4),
			Close:    roundToDecimals(close, 4),
			AdjClose: roundToDecimals(close, 4),
			Volume:   volume,
		}

		currentPrice = close
		currentDate = currentDate.AddDate(0, 0, 1)
	}

	return records
}

// FromOpens builds one record per price with open == close and a constant volume.
func FromOpens(opens ...float64) []types.DailyRecord {
	start := DefaultConfig().StartDate
	records := make([]types.DailyRecord, len(opens))

	for i, price := range opens {
		records[i] = types.DailyRecord{
			Date:     start.AddDate(0, 0, i),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			AdjClose: price,
			Volume:   1000,
		}
	}

	return records
}

// Flat returns count records that all trade at price.
func Flat(count int, price float64) []types.DailyRecord {
	opens := make([]float64, count)
	for i := range opens {
		opens[i] = price
	}

	return FromOpens(opens...)
}

// MustSeries wraps records in a HistoricalSeries and panics on an ordering error.
func MustSeries(records []types.DailyRecord) *types.HistoricalSeries {
	series, err := types.NewHistoricalSeries(records)
	if err != nil {
		panic(err)
	}

	return series
}

func roundToDecimals(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))

	return math.Round(value*factor) / factor
}
