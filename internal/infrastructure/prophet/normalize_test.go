package prophet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

const snakeResults = `{
	"forecast": [
		{"ds": "2024-01-01", "yhat": 10.5, "yhat_lower": 8.0, "yhat_upper": 13.0, "actual": 10.0},
		{"ds": "2024-01-02", "yhat": 11.0, "yhat_lower": 8.5, "yhat_upper": 13.5}
	],
	"model_summary": {
		"growth": "linear",
		"seasonality_mode": "additive",
		"n_changepoints": 12,
		"training_rows": 365,
		"training_start": "2023-01-01",
		"training_end": "2023-12-31"
	},
	"performance_metrics": {"mae": 1.2, "rmse": 1.8, "mape": 4.5, "coverage": 0.82},
	"components": {"trend": [1.0, 2.0], "weekly": [0.1, -0.1]},
	"elapsed_seconds": 3.4
}`

const camelResults = `{
	"forecast": [
		{"ds": "2024-01-01", "yhat": 10.5, "yhatLower": 8.0, "yhatUpper": 13.0, "actual": 10.0},
		{"ds": "2024-01-02", "yhat": 11.0, "yhatLower": 8.5, "yhatUpper": 13.5}
	],
	"modelSummary": {
		"growth": "linear",
		"seasonalityMode": "additive",
		"nChangepoints": 12,
		"trainingRows": 365,
		"trainingStart": "2023-01-01",
		"trainingEnd": "2023-12-31"
	},
	"performanceMetrics": {"mae": 1.2, "rmse": 1.8, "mape": 4.5, "coverage": 0.82},
	"components": {"trend": [1.0, 2.0], "weekly": [0.1, -0.1]},
	"elapsedSeconds": 3.4
}`

func TestNormalizeResultsAcceptsBothKeyStyles(t *testing.T) {
	for name, payload := range map[string]string{
		"snake_case": snakeResults,
		"camelCase":  camelResults,
	} {
		t.Run(name, func(t *testing.T) {
			results, err := NormalizeResults(rawJSON(t, payload))
			require.NoError(t, err)

			require.Len(t, results.Forecast, 2)
			assert.Equal(t, "2024-01-01", results.Forecast[0].DS)
			assert.Equal(t, 8.0, results.Forecast[0].YhatLower)
			assert.Equal(t, 13.0, results.Forecast[0].YhatUpper)
			require.NotNil(t, results.Forecast[0].Actual)
			assert.Equal(t, 10.0, *results.Forecast[0].Actual)
			assert.Nil(t, results.Forecast[1].Actual)

			assert.Equal(t, "linear", results.ModelSummary.Growth)
			assert.Equal(t, "additive", results.ModelSummary.SeasonalityMode)
			assert.Equal(t, 12, results.ModelSummary.NChangepoints)
			assert.Equal(t, 365, results.ModelSummary.TrainingRows)

			assert.Equal(t, 1.2, results.PerformanceMetrics.MAE)
			assert.Equal(t, 0.82, results.PerformanceMetrics.Coverage)

			assert.Equal(t, []float64{1.0, 2.0}, results.Components["trend"])
			assert.Equal(t, 3.4, results.ElapsedSeconds)
		})
	}
}

func TestNormalizeResultsForecastDataEnvelope(t *testing.T) {
	raw := rawJSON(t, `{
		"success": true,
		"forecast_data": [
			{"ds": "2024-01-01", "yhat": 10.5, "yhat_lower": 8.0, "yhat_upper": 13.0}
		],
		"model_summary": {"growth": "linear", "training_rows": 365},
		"performance_metrics": {"mae": 1.2, "rmse": 1.8, "mape": 4.5, "coverage": 0.82}
	}`)

	results, err := NormalizeResults(raw)
	require.NoError(t, err)
	require.Len(t, results.Forecast, 1)
	assert.Equal(t, "2024-01-01", results.Forecast[0].DS)
	assert.Equal(t, "linear", results.ModelSummary.Growth)

	// camelCase variant of the same envelope.
	results, err = NormalizeResults(rawJSON(t, `{"success": true, "forecastData": [{"ds": "2024-01-02", "yhat": 11.0}]}`))
	require.NoError(t, err)
	require.Len(t, results.Forecast, 1)
	assert.Equal(t, "2024-01-02", results.Forecast[0].DS)
}

func TestNormalizeResultsSuccessFalseCarriesMessage(t *testing.T) {
	_, err := NormalizeResults(rawJSON(t, `{"success": false, "message": "series too short"}`))
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "series too short", backendErr.Message)
	assert.Zero(t, backendErr.StatusCode)
	assert.Contains(t, err.Error(), "series too short")

	// No message still yields a typed error, not the missing-series one.
	_, err = NormalizeResults(rawJSON(t, `{"success": false}`))
	require.ErrorAs(t, err, &backendErr)
}

func TestNormalizeResultsMissingForecast(t *testing.T) {
	_, err := NormalizeResults(rawJSON(t, `{"model_summary": {}}`))
	assert.Error(t, err)

	_, err = NormalizeResults(nil)
	assert.Error(t, err)
}

func TestNormalizeResultsCrossValidation(t *testing.T) {
	raw := rawJSON(t, `{
		"forecast": [],
		"crossValidation": {
			"folds": 3,
			"horizon": "30 days",
			"metrics": {"mae": 2.1, "rmse": 3.0, "mape": 6.0, "coverage": 0.79}
		}
	}`)

	results, err := NormalizeResults(raw)
	require.NoError(t, err)
	require.NotNil(t, results.CrossValidation)
	assert.Equal(t, 3, results.CrossValidation.Folds)
	assert.Equal(t, "30 days", results.CrossValidation.Horizon)
	assert.Equal(t, 2.1, results.CrossValidation.Metrics.MAE)
}

func TestNormalizeValidate(t *testing.T) {
	t.Run("snake_case", func(t *testing.T) {
		resp := NormalizeValidate(rawJSON(t, `{"is_valid": false, "errors": ["too few rows"], "warnings": ["gaps"], "row_count": 5}`))
		assert.False(t, resp.IsValid)
		assert.Equal(t, []string{"too few rows"}, resp.Errors)
		assert.Equal(t, []string{"gaps"}, resp.Warnings)
		assert.Equal(t, 5, resp.RowCount)
	})

	t.Run("camelCase", func(t *testing.T) {
		resp := NormalizeValidate(rawJSON(t, `{"isValid": true, "rowCount": 120}`))
		assert.True(t, resp.IsValid)
		assert.Empty(t, resp.Errors)
		assert.Equal(t, 120, resp.RowCount)
	})
}

func TestNormalizeProcess(t *testing.T) {
	resp, err := NormalizeProcess(rawJSON(t, `{
		"rows": [["2024-01-01", "10"], ["2024-01-02", "11"]],
		"report": {"removedRows": 2}
	}`))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2024-01-01", "10"}, {"2024-01-02", "11"}}, resp.Rows)
	assert.Equal(t, float64(2), resp.Report["removedRows"])

	_, err = NormalizeProcess(rawJSON(t, `{"report": {}}`))
	assert.Error(t, err)
}

func TestFieldKeyCollapsesStyles(t *testing.T) {
	assert.Equal(t, fieldKey("yhat_lower"), fieldKey("yhatLower"))
	assert.Equal(t, fieldKey("model-summary"), fieldKey("model_summary"))
	assert.NotEqual(t, fieldKey("yhat_lower"), fieldKey("yhat_upper"))
}
