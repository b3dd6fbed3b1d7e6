package forecast

import "time"

// RunState is the lifecycle state of a forecast execution.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateValidating RunState = "validating"
	StateSubmitting RunState = "submitting"
	StateProcessing RunState = "processing"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
	StateCancelled  RunState = "cancelled"
)

// StageStatus is the display status of one progress stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
	StageError     StageStatus = "error"
)

// Stage is one named step of the cosmetic progress sequence. Duration and
// TargetPercent drive client-side interpolation only; they carry no
// information about actual backend progress.
type Stage struct {
	Name          string        `json:"name"`
	Label         string        `json:"label"`
	Duration      time.Duration `json:"-"`
	TargetPercent float64       `json:"targetPercent"`
	Status        StageStatus   `json:"status"`
}

// DefaultStagePlan returns the fixed ordered stage sequence shown during a
// forecast run. Percentages are cumulative targets.
func DefaultStagePlan() []Stage {
	return []Stage{
		{Name: "validation", Label: "Validating configuration", Duration: 500 * time.Millisecond, TargetPercent: 5, Status: StagePending},
		{Name: "data_preparation", Label: "Preparing data", Duration: 1 * time.Second, TargetPercent: 15, Status: StagePending},
		{Name: "model_creation", Label: "Creating model", Duration: 1500 * time.Millisecond, TargetPercent: 25, Status: StagePending},
		{Name: "model_fitting", Label: "Fitting model", Duration: 4 * time.Second, TargetPercent: 65, Status: StagePending},
		{Name: "prediction", Label: "Generating predictions", Duration: 1500 * time.Millisecond, TargetPercent: 80, Status: StagePending},
		{Name: "component_extraction", Label: "Extracting components", Duration: 1 * time.Second, TargetPercent: 92, Status: StagePending},
		{Name: "cleanup", Label: "Cleaning up", Duration: 500 * time.Millisecond, TargetPercent: 100, Status: StagePending},
	}
}

// CloneStages returns a fresh copy of a stage slice so each run owns its own
// mutable stage states.
func CloneStages(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}
