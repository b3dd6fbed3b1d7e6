package prophet

import (
	"errors"
	"strings"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
)

// The backend has shipped responses in both snake_case and camelCase across
// versions. Every response passes through this adapter exactly once, so the
// rest of the codebase only ever sees the canonical forecast types.

// fieldKey canonicalizes a JSON key by stripping separators and lowercasing,
// so "yhat_lower", "yhatLower", and "YhatLower" all collide.
func fieldKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(key, "_", ""), "-", ""))
}

// lookup finds a value in a raw object regardless of key style.
func lookup(raw map[string]any, key string) (any, bool) {
	want := fieldKey(key)
	for k, v := range raw {
		if fieldKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func lookupString(raw map[string]any, key string) string {
	if v, ok := lookup(raw, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func lookupFloat(raw map[string]any, key string) float64 {
	if v, ok := lookup(raw, key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return 0
}

func lookupFloatPtr(raw map[string]any, key string) *float64 {
	if v, ok := lookup(raw, key); ok {
		if n, ok := v.(float64); ok {
			return &n
		}
	}
	return nil
}

func lookupInt(raw map[string]any, key string) int {
	return int(lookupFloat(raw, key))
}

func lookupObject(raw map[string]any, key string) map[string]any {
	if v, ok := lookup(raw, key); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func lookupArray(raw map[string]any, key string) []any {
	if v, ok := lookup(raw, key); ok {
		if a, ok := v.([]any); ok {
			return a
		}
	}
	return nil
}

// NormalizeResults converts a raw backend forecast response into the
// canonical Results type, accepting either key style. The series arrives
// under "forecast" or "forecast_data" depending on the backend version.
func NormalizeResults(raw map[string]any) (*forecast.Results, error) {
	if raw == nil {
		return nil, errors.New("empty backend response")
	}

	// A 200 body can still report failure through the success flag; the
	// backend's own message is the error the user should see.
	if v, ok := lookup(raw, "success"); ok {
		if b, ok := v.(bool); ok && !b {
			return nil, &BackendError{Message: lookupString(raw, "message")}
		}
	}

	points := lookupArray(raw, "forecast")
	if points == nil {
		points = lookupArray(raw, "forecast_data")
	}
	if points == nil {
		return nil, errors.New("backend response missing forecast series")
	}

	results := &forecast.Results{
		Forecast:       make([]forecast.SeriesPoint, 0, len(points)),
		Components:     map[string][]float64{},
		GeneratedAt:    time.Now().UTC(),
		ElapsedSeconds: lookupFloat(raw, "elapsed_seconds"),
	}

	for _, p := range points {
		obj, ok := p.(map[string]any)
		if !ok {
			return nil, errors.New("malformed forecast point in backend response")
		}
		results.Forecast = append(results.Forecast, forecast.SeriesPoint{
			DS:        lookupString(obj, "ds"),
			Yhat:      lookupFloat(obj, "yhat"),
			YhatLower: lookupFloat(obj, "yhat_lower"),
			YhatUpper: lookupFloat(obj, "yhat_upper"),
			Actual:    lookupFloatPtr(obj, "actual"),
		})
	}

	if summary := lookupObject(raw, "model_summary"); summary != nil {
		results.ModelSummary = forecast.ModelSummary{
			Growth:          lookupString(summary, "growth"),
			SeasonalityMode: lookupString(summary, "seasonality_mode"),
			NChangepoints:   lookupInt(summary, "n_changepoints"),
			TrainingRows:    lookupInt(summary, "training_rows"),
			TrainingStart:   lookupString(summary, "training_start"),
			TrainingEnd:     lookupString(summary, "training_end"),
		}
	}

	if metrics := lookupObject(raw, "performance_metrics"); metrics != nil {
		results.PerformanceMetrics = forecast.Metrics{
			MAE:      lookupFloat(metrics, "mae"),
			RMSE:     lookupFloat(metrics, "rmse"),
			MAPE:     lookupFloat(metrics, "mape"),
			Coverage: lookupFloat(metrics, "coverage"),
		}
	}

	if components := lookupObject(raw, "components"); components != nil {
		for name, v := range components {
			arr, ok := v.([]any)
			if !ok {
				continue
			}
			series := make([]float64, 0, len(arr))
			for _, n := range arr {
				if f, ok := n.(float64); ok {
					series = append(series, f)
				}
			}
			results.Components[fieldKey(name)] = series
		}
	}

	if cv := lookupObject(raw, "cross_validation"); cv != nil {
		crossVal := &forecast.CrossValidation{
			Folds:   lookupInt(cv, "folds"),
			Horizon: lookupString(cv, "horizon"),
		}
		if cvMetrics := lookupObject(cv, "metrics"); cvMetrics != nil {
			crossVal.Metrics = forecast.Metrics{
				MAE:      lookupFloat(cvMetrics, "mae"),
				RMSE:     lookupFloat(cvMetrics, "rmse"),
				MAPE:     lookupFloat(cvMetrics, "mape"),
				Coverage: lookupFloat(cvMetrics, "coverage"),
			}
		}
		results.CrossValidation = crossVal
	}

	return results, nil
}

// NormalizeValidate converts a raw validation response, accepting either key
// style.
func NormalizeValidate(raw map[string]any) *ValidateResponse {
	resp := &ValidateResponse{
		Errors:   []string{},
		Warnings: []string{},
		RowCount: lookupInt(raw, "row_count"),
	}
	if v, ok := lookup(raw, "is_valid"); ok {
		if b, ok := v.(bool); ok {
			resp.IsValid = b
		}
	}
	for _, e := range lookupArray(raw, "errors") {
		if s, ok := e.(string); ok {
			resp.Errors = append(resp.Errors, s)
		}
	}
	for _, w := range lookupArray(raw, "warnings") {
		if s, ok := w.(string); ok {
			resp.Warnings = append(resp.Warnings, s)
		}
	}
	return resp
}

// NormalizeProcess converts a raw clean/transform response, accepting either
// key style.
func NormalizeProcess(raw map[string]any) (*ProcessResponse, error) {
	rows := lookupArray(raw, "rows")
	if rows == nil {
		return nil, errors.New("backend response missing rows")
	}

	resp := &ProcessResponse{
		Rows:   make([][]string, 0, len(rows)),
		Report: lookupObject(raw, "report"),
	}
	if resp.Report == nil {
		resp.Report = map[string]any{}
	}

	for _, r := range rows {
		arr, ok := r.([]any)
		if !ok {
			return nil, errors.New("malformed row in backend response")
		}
		row := make([]string, 0, len(arr))
		for _, cell := range arr {
			if s, ok := cell.(string); ok {
				row = append(row, s)
			} else {
				row = append(row, "")
			}
		}
		resp.Rows = append(resp.Rows, row)
	}

	return resp, nil
}
