package forecast

import "errors"

// PrivacyNote is appended to every user-visible forecast failure. It restates
// the application's core promise: uploaded data never touches disk.
const PrivacyNote = "Your data was processed in memory only and has been discarded."

var (
	// ErrRunInFlight is returned when a start request arrives while an
	// execution is already running for the session.
	ErrRunInFlight = errors.New("a forecast is already running for this session")

	// ErrNotReady is returned when execution is requested before both a
	// column mapping and a configuration are present.
	ErrNotReady = errors.New("column mapping and forecast configuration are required before running a forecast")

	// ErrNoRun is returned by cancel/retry when no execution exists.
	ErrNoRun = errors.New("no forecast execution for this session")
)
