package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
)

// FieldError pairs a JSON field name with a human-readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ConfigValidationResult is the outcome of validating a forecast config.
type ConfigValidationResult struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go struct names so errors key
	// directly against the form fields the browser submitted.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateForecastConfig enforces the documented per-field bounds plus the
// cross-field rules the struct tags cannot express.
func ValidateForecastConfig(cfg *forecast.Config) ConfigValidationResult {
	result := ConfigValidationResult{Errors: []FieldError{}}
	if cfg == nil {
		result.Errors = append(result.Errors, FieldError{Field: "config", Message: "configuration is required"})
		return result
	}

	if err := configValidator.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result.Errors = append(result.Errors, FieldError{
					Field:   fe.Field(),
					Message: boundsMessage(fe),
				})
			}
		} else {
			result.Errors = append(result.Errors, FieldError{Field: "config", Message: err.Error()})
		}
	}

	// Logistic growth requires a positive saturation cap.
	if cfg.Growth == forecast.GrowthLogistic {
		if cfg.Cap == nil || *cfg.Cap <= 0 {
			result.Errors = append(result.Errors, FieldError{
				Field:   "cap",
				Message: "logistic growth requires a positive cap",
			})
		} else if cfg.Floor != nil && *cfg.Floor >= *cfg.Cap {
			result.Errors = append(result.Errors, FieldError{
				Field:   "floor",
				Message: "floor must be less than cap",
			})
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// boundsMessage turns a validator tag failure into a field-appropriate
// message with the documented bound baked in.
func boundsMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "horizon":
		return fmt.Sprintf("horizon must be between %d and %d periods", forecast.HorizonMin, forecast.HorizonMax)
	case "growth":
		return "growth must be one of: linear, logistic, flat"
	case "seasonalityMode":
		return "seasonality mode must be additive or multiplicative"
	case "changepointPriorScale":
		return fmt.Sprintf("changepoint prior scale must be between %g and %g", forecast.ChangepointPriorScaleMin, forecast.ChangepointPriorScaleMax)
	case "changepointRange":
		return "changepoint range must be in (0, 1]"
	case "seasonalityPriorScale":
		return fmt.Sprintf("seasonality prior scale must be between %g and %g", forecast.SeasonalityPriorScaleMin, forecast.SeasonalityPriorScaleMax)
	case "intervalWidth":
		return "interval width must be strictly between 0 and 1"
	case "mcmcSamples":
		return fmt.Sprintf("MCMC samples must be between 0 and %d", forecast.MCMCSamplesMax)
	case "holidayCountry":
		return "holiday country must be a two-letter country code"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
