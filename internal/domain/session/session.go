// Package session defines the session aggregate: the time-bounded, in-memory
// bundle of one user's uploaded data, configuration, results, processing
// history, and annotations.
package session

import (
	"encoding/json"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
)

// StepType distinguishes cleaning from transformation history entries.
type StepType string

const (
	StepCleaning       StepType = "cleaning"
	StepTransformation StepType = "transformation"
)

// ProcessingStep is one applied cleaning/transformation operation together
// with the backend's report. The history is append-only; entries may be
// removed by index or cleared in bulk, but never edited.
type ProcessingStep struct {
	Type      StepType       `json:"type"`
	Config    map[string]any `json:"config"`
	Report    map[string]any `json:"report"`
	AppliedAt time.Time      `json:"appliedAt"`
}

// AnnotationType tags a user annotation for report grouping.
type AnnotationType string

const (
	AnnotationInsight        AnnotationType = "insight"
	AnnotationObservation    AnnotationType = "observation"
	AnnotationConcern        AnnotationType = "concern"
	AnnotationRecommendation AnnotationType = "recommendation"
	AnnotationMethodology    AnnotationType = "methodology"
	AnnotationGeneral        AnnotationType = "general"
)

// ValidAnnotationType reports whether t is one of the known tags.
func ValidAnnotationType(t AnnotationType) bool {
	switch t {
	case AnnotationInsight, AnnotationObservation, AnnotationConcern,
		AnnotationRecommendation, AnnotationMethodology, AnnotationGeneral:
		return true
	}
	return false
}

// Annotation is a free-form user comment attached to the session.
type Annotation struct {
	ID              string         `json:"id"`
	Type            AnnotationType `json:"type"`
	Text            string         `json:"text"`
	CreatedAt       time.Time      `json:"createdAt"`
	IncludeInReport bool           `json:"includeInReport"`
	IncludeInShare  bool           `json:"includeInShare"`
}

// Session is the top-level aggregate for one forecasting workflow. It lives
// only in the in-memory store; it is created on first upload and destroyed on
// explicit clear or expiry.
type Session struct {
	SessionID    string    `json:"sessionId"`
	StartTime    time.Time `json:"startTime"`
	LastActivity time.Time `json:"lastActivity"`

	// RawData holds the full parsed dataset (header excluded); Preview is
	// the user-facing snapshot derived from it. OriginalRaw and
	// OriginalPreview retain the as-uploaded state so revert-all can restore
	// it without re-parsing.
	RawData         [][]string             `json:"rawData,omitempty"`
	OriginalRaw     [][]string             `json:"originalRaw,omitempty"`
	Preview         *dataset.Preview       `json:"preview,omitempty"`
	OriginalPreview *dataset.Preview       `json:"originalPreview,omitempty"`
	Mapping         *dataset.ColumnMapping `json:"mapping,omitempty"`

	Config  *forecast.Config  `json:"config,omitempty"`
	Results *forecast.Results `json:"results,omitempty"`

	History     []ProcessingStep `json:"history"`
	Annotations []Annotation     `json:"annotations"`
}

// New creates an empty session with the given id.
func New(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:    id,
		StartTime:    now,
		LastActivity: now,
		History:      []ProcessingStep{},
		Annotations:  []Annotation{},
	}
}

// HasData reports whether an upload has populated the session.
func (s *Session) HasData() bool { return s.Preview != nil }

// HasConfig reports whether a forecast configuration is present.
func (s *Session) HasConfig() bool { return s.Config != nil }

// HasResults reports whether a successful execution completed and was not
// cleared since.
func (s *Session) HasResults() bool { return s.Results != nil }

// ReadyToForecast enforces the execution precondition: mapping and config
// must both be present.
func (s *Session) ReadyToForecast() bool {
	return s.HasData() && s.Mapping != nil && s.HasConfig()
}

// Age returns the elapsed time since the session started (or was last
// extended).
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

// Expired reports whether the session age exceeds maxAge.
func (s *Session) Expired(now time.Time, maxAge time.Duration) bool {
	return s.Age(now) > maxAge
}

// Touch updates the activity timestamp.
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
}

// Clear resets every data field to its initial empty state. The session id
// and start time survive so the caller can keep or discard the shell. Calling
// Clear on an already-empty session is a no-op.
func (s *Session) Clear() {
	s.RawData = nil
	s.OriginalRaw = nil
	s.Preview = nil
	s.OriginalPreview = nil
	s.Mapping = nil
	s.Config = nil
	s.Results = nil
	s.History = []ProcessingStep{}
	s.Annotations = []Annotation{}
	s.Touch()
}

// SnapshotVersion identifies the export format for forward compatibility.
const SnapshotVersion = 1

// Snapshot is the serializable export of a full session, suitable for
// download and later restore.
type Snapshot struct {
	Version         int                    `json:"version"`
	SessionID       string                 `json:"sessionId"`
	ExportedAt      time.Time              `json:"exportedAt"`
	RawData         [][]string             `json:"rawData,omitempty"`
	OriginalRaw     [][]string             `json:"originalRaw,omitempty"`
	Preview         *dataset.Preview       `json:"preview,omitempty"`
	OriginalPreview *dataset.Preview       `json:"originalPreview,omitempty"`
	Mapping         *dataset.ColumnMapping `json:"mapping,omitempty"`
	Config          *forecast.Config       `json:"config,omitempty"`
	Results         *forecast.Results      `json:"results,omitempty"`
	History         []ProcessingStep       `json:"history"`
	Annotations     []Annotation           `json:"annotations"`
}

// Export produces a deep-copied snapshot of the session.
func (s *Session) Export() (*Snapshot, error) {
	snap := &Snapshot{
		Version:     SnapshotVersion,
		SessionID:   s.SessionID,
		ExportedAt:  time.Now().UTC(),
		History:     []ProcessingStep{},
		Annotations: []Annotation{},
	}
	// JSON round-trip gives a deep copy of the nested structures without
	// hand-maintained clone code for every field.
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var dup Session
	if err := json.Unmarshal(raw, &dup); err != nil {
		return nil, err
	}
	snap.RawData = dup.RawData
	snap.OriginalRaw = dup.OriginalRaw
	snap.Preview = dup.Preview
	snap.OriginalPreview = dup.OriginalPreview
	snap.Mapping = dup.Mapping
	snap.Config = dup.Config
	snap.Results = dup.Results
	if dup.History != nil {
		snap.History = dup.History
	}
	if dup.Annotations != nil {
		snap.Annotations = dup.Annotations
	}
	return snap, nil
}

// Restore replaces the session's content with the snapshot's. The session
// keeps its own id and start time; only data fields are restored.
func (s *Session) Restore(snap *Snapshot) {
	s.RawData = snap.RawData
	s.OriginalRaw = snap.OriginalRaw
	s.Preview = snap.Preview
	s.OriginalPreview = snap.OriginalPreview
	s.Mapping = snap.Mapping
	s.Config = snap.Config
	s.Results = snap.Results
	s.History = snap.History
	if s.History == nil {
		s.History = []ProcessingStep{}
	}
	s.Annotations = snap.Annotations
	if s.Annotations == nil {
		s.Annotations = []Annotation{}
	}
	s.Touch()
}
