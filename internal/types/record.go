package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
)

// DailyRecord is one trading day of a historical price file.
type DailyRecord struct {
	Date     time.Time `yaml:"date" json:"date" validate:"required"`
	Open     float64   `yaml:"open" json:"open" validate:"finite,gt=0"`
	High     float64   `yaml:"high" json:"high" validate:"finite,gte=0"`
	Low      float64   `yaml:"low" json:"low" validate:"finite,gte=0"`
	Close    float64   `yaml:"close" json:"close" validate:"finite,gte=0"`
	AdjClose float64   `yaml:"adj_close" json:"adj_close" validate:"finite,gte=0"`
	Volume   int64     `yaml:"volume" json:"volume" validate:"gte=0"`
	// RSI is set by the precompute pass for day 15 onwards.
	RSI optional.Option[float64] `yaml:"-" json:"-"`
	// MA is the 50-day moving average of the opens before this day.
	MA optional.Option[float64] `yaml:"-" json:"-"`
}

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	validate := validator.New()

	err := validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		value := fl.Field().Float()

		return !math.IsNaN(value) && !math.IsInf(value, 0)
	})
	if err != nil {
		panic(err)
	}

	return validate
}

// Validate checks the row constraints shared by every loader: a date, a finite
// positive open, finite non-negative prices and a non-negative volume.
func (r DailyRecord) Validate() error {
	return recordValidator.Struct(r)
}

// WithIndicators returns a copy of the record carrying the given indicator values.
func (r DailyRecord) WithIndicators(rsi optional.Option[float64], ma optional.Option[float64]) DailyRecord {
	r.RSI = rsi
	r.MA = ma

	return r
}

// Annotated reports whether the precompute pass has set at least one indicator.
func (r DailyRecord) Annotated() bool {
	return r.RSI.IsSome() || r.MA.IsSome()
}
