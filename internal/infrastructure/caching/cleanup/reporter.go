// Package cleanup provides ascii reporter
package cleanup

import (
	"fmt"
	"strings"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
)

const (
	cyan     = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	dimCyan  = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey     = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey  = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success  = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	warning  = "\033[38;2;229;192;123m" // One Dark Yellow: #E5C07B
	errorRed = "\033[38;2;224;108;117m" // One Dark Red: #E06C75
	white    = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	reset    = "\033[0m"
	bold     = "\033[1m"
)

type Reporter struct {
	store *stores.SessionsStore
}

func NewReporter(store *stores.SessionsStore) *Reporter {
	return &Reporter{store: store}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Printf("%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s⚠ WARNING: %s%s%s\n", bold, warning, grey, formattedMsg, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s▶ %s%s%s\n", dimGrey, grey, formattedMsg, reset)
}

// GenerateStoreReport renders a counts-only table of live sessions. Session
// ids are the only identifiers shown; no user data appears here.
func (r *Reporter) GenerateStoreReport() string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	summaries := r.store.Summaries()
	report.WriteString(fmt.Sprintf("%s%s▓ %s | Live sessions: %d%s\n", bold, dimCyan, timestamp, len(summaries), reset))

	for _, s := range summaries {
		age := time.Since(s.StartTime).Round(time.Second)
		idle := time.Since(s.LastActivity).Round(time.Second)
		report.WriteString(fmt.Sprintf("  %s%s%s  age=%v idle=%v rows=%d steps=%d data=%v results=%v\n",
			cyan, s.SessionID, reset, age, idle, s.RowCount, s.StepCount, s.HasData, s.HasResults))
	}

	return report.String()
}
