package forecast

import "time"

// SeriesPoint is one timestamped prediction with its confidence band.
// Actual is set only for in-sample points where the observed value exists.
type SeriesPoint struct {
	DS        string   `json:"ds"`
	Yhat      float64  `json:"yhat"`
	YhatLower float64  `json:"yhatLower"`
	YhatUpper float64  `json:"yhatUpper"`
	Actual    *float64 `json:"actual,omitempty"`
}

// ModelSummary describes the fitted model for display.
type ModelSummary struct {
	Growth          string `json:"growth"`
	SeasonalityMode string `json:"seasonalityMode"`
	NChangepoints   int    `json:"nChangepoints"`
	TrainingRows    int    `json:"trainingRows"`
	TrainingStart   string `json:"trainingStart"`
	TrainingEnd     string `json:"trainingEnd"`
}

// Metrics holds in-sample performance metrics returned by the backend.
type Metrics struct {
	MAE      float64 `json:"mae"`
	RMSE     float64 `json:"rmse"`
	MAPE     float64 `json:"mape"`
	Coverage float64 `json:"coverage"`
}

// CrossValidation holds the optional rolling-origin validation block.
type CrossValidation struct {
	Folds   int     `json:"folds"`
	Horizon string  `json:"horizon"`
	Metrics Metrics `json:"metrics"`
}

// Results is the complete output of one successful forecast execution.
// Components are keyed by name (trend, yearly, weekly, daily, holidays) and
// aligned index-for-index with the Forecast series.
type Results struct {
	ModelSummary       ModelSummary         `json:"modelSummary"`
	PerformanceMetrics Metrics              `json:"performanceMetrics"`
	Forecast           []SeriesPoint        `json:"forecast"`
	Components         map[string][]float64 `json:"components"`
	CrossValidation    *CrossValidation     `json:"crossValidation,omitempty"`
	GeneratedAt        time.Time            `json:"generatedAt"`
	ElapsedSeconds     float64              `json:"elapsedSeconds"`
}
