// Package performance provides performance monitoring data structures and
// utilities for tracking operation latency across the Foresight application.
package performance

import (
	"runtime"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation   string         `json:"operation"`       // e.g., "upload:parse", "forecast:generate"
	SessionID   string         `json:"sessionId"`       // Session identifier for correlation
	StartTime   time.Time      `json:"startTime"`       // When the operation started
	EndTime     time.Time      `json:"endTime"`         // When the operation completed
	Duration    time.Duration  `json:"duration"`        // Total operation duration
	Success     bool           `json:"success"`         // Whether the operation completed successfully
	Error       string         `json:"error,omitempty"` // Error message if operation failed
	Metadata    map[string]any `json:"metadata"`        // Additional operation-specific data
	MemoryUsage int64          `json:"memoryUsage"`     // Memory allocated during operation (bytes)
	Completed   bool           `json:"completed"`       // Whether Complete() has been called
}

// Complete marks the operation as finished and calculates final metrics
func (m *Marker) Complete() {
	if m.Completed {
		return // Prevent double completion
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsage = int64(memStats.Alloc)
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// UploadPerformanceTracker contains the latest markers for upload operations
type UploadPerformanceTracker struct {
	FileValidation *Marker `json:"fileValidation,omitempty"`
	CSVParsing     *Marker `json:"csvParsing,omitempty"`
	TypeInference  *Marker `json:"typeInference,omitempty"`
	QualityScan    *Marker `json:"qualityScan,omitempty"`
}

// ForecastPerformanceTracker contains the latest markers for forecast operations
type ForecastPerformanceTracker struct {
	ConfigValidation *Marker `json:"configValidation,omitempty"`
	BackendCall      *Marker `json:"backendCall,omitempty"`
	ResultAssembly   *Marker `json:"resultAssembly,omitempty"`
	RegistrySave     *Marker `json:"registrySave,omitempty"`
}

// ProcessingPerformanceTracker contains the latest markers for data processing
type ProcessingPerformanceTracker struct {
	CleaningStep       *Marker `json:"cleaningStep,omitempty"`
	TransformationStep *Marker `json:"transformationStep,omitempty"`
	RevertOperation    *Marker `json:"revertOperation,omitempty"`
}

// SystemPerformanceTracker contains markers for system-wide operations
type SystemPerformanceTracker struct {
	ApplicationStartup   *Marker `json:"applicationStartup,omitempty"`
	ServerInitialization *Marker `json:"serverInitialization,omitempty"`
	SessionSweep         *Marker `json:"sessionSweep,omitempty"`
	GracefulShutdown     *Marker `json:"gracefulShutdown,omitempty"`
}

// PerformanceSnapshot represents a point-in-time view of system performance
type PerformanceSnapshot struct {
	Timestamp           time.Time                     `json:"timestamp"`
	Upload              *UploadPerformanceTracker     `json:"upload,omitempty"`
	Forecast            *ForecastPerformanceTracker   `json:"forecast,omitempty"`
	Processing          *ProcessingPerformanceTracker `json:"processing,omitempty"`
	System              *SystemPerformanceTracker     `json:"system,omitempty"`
	OverallHealth       HealthStatus                  `json:"overallHealth"`
	ActiveOperations    int                           `json:"activeOperations"`
	CompletedOperations int                           `json:"completedOperations"`
}

// HealthStatus represents the overall health of a system component
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"   // All operations performing within normal parameters
	HealthDegraded  HealthStatus = "degraded"  // Some operations showing performance issues
	HealthUnhealthy HealthStatus = "unhealthy" // Significant performance problems detected
	HealthUnknown   HealthStatus = "unknown"   // Unable to determine health status
)

// PerformanceAlert represents a performance threshold violation
type PerformanceAlert struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Severity     AlertSeverity  `json:"severity"`
	Operation    string         `json:"operation"`
	Actual       time.Duration  `json:"actual"`
	Message      string         `json:"message"`
	Metadata     map[string]any `json:"metadata"`
	Acknowledged bool           `json:"acknowledged"`
}

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"     // Informational alert
	AlertWarning  AlertSeverity = "warning"  // Performance degradation detected
	AlertCritical AlertSeverity = "critical" // Serious performance issue
)
