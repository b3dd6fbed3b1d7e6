// Package forecast defines the forecasting configuration, result, and
// execution lifecycle types shared across the application.
package forecast

// Growth modes accepted by the Prophet backend.
const (
	GrowthLinear   = "linear"
	GrowthLogistic = "logistic"
	GrowthFlat     = "flat"
)

// Seasonality modes accepted by the Prophet backend.
const (
	SeasonalityAdditive       = "additive"
	SeasonalityMultiplicative = "multiplicative"
)

// Documented parameter bounds. The UI surfaces these as form limits; the
// validation layer enforces them server-side.
const (
	HorizonMin = 1
	HorizonMax = 730

	ChangepointPriorScaleMin = 0.001
	ChangepointPriorScaleMax = 1.0

	SeasonalityPriorScaleMin = 0.01
	SeasonalityPriorScaleMax = 100.0

	MCMCSamplesMax = 2000
)

// Config holds the full set of forecast parameters for one run. A Config is
// immutable once submitted to an execution; starting another run requires a
// new Config object even when the values are identical.
type Config struct {
	Horizon               int      `json:"horizon" validate:"required,min=1,max=730"`
	Growth                string   `json:"growth" validate:"required,oneof=linear logistic flat"`
	Cap                   *float64 `json:"cap,omitempty"`
	Floor                 *float64 `json:"floor,omitempty"`
	YearlySeasonality     *bool    `json:"yearlySeasonality,omitempty"`
	WeeklySeasonality     *bool    `json:"weeklySeasonality,omitempty"`
	DailySeasonality      *bool    `json:"dailySeasonality,omitempty"`
	SeasonalityMode       string   `json:"seasonalityMode" validate:"required,oneof=additive multiplicative"`
	ChangepointPriorScale float64  `json:"changepointPriorScale" validate:"gte=0.001,lte=1"`
	ChangepointRange      float64  `json:"changepointRange" validate:"gt=0,lte=1"`
	SeasonalityPriorScale float64  `json:"seasonalityPriorScale" validate:"gte=0.01,lte=100"`
	HolidayCountry        string   `json:"holidayCountry,omitempty" validate:"omitempty,alpha,len=2"`
	IntervalWidth         float64  `json:"intervalWidth" validate:"gt=0,lt=1"`
	MCMCSamples           int      `json:"mcmcSamples" validate:"gte=0,lte=2000"`
}

// DefaultConfig returns a Config populated with the backend's defaults.
func DefaultConfig() *Config {
	return &Config{
		Horizon:               30,
		Growth:                GrowthLinear,
		SeasonalityMode:       SeasonalityAdditive,
		ChangepointPriorScale: 0.05,
		ChangepointRange:      0.8,
		SeasonalityPriorScale: 10.0,
		IntervalWidth:         0.8,
		MCMCSamples:           0,
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Cap = clonePtr(c.Cap)
	dup.Floor = clonePtr(c.Floor)
	dup.YearlySeasonality = clonePtr(c.YearlySeasonality)
	dup.WeeklySeasonality = clonePtr(c.WeeklySeasonality)
	dup.DailySeasonality = clonePtr(c.DailySeasonality)
	return &dup
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
