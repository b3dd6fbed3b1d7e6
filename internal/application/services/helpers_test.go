package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
)

func newTestTracker() *performance.Tracker {
	return performance.NewTracker(nil)
}

// quietLogger builds a logger that stays silent below the error level so
// test output remains readable.
func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	require.NoError(t, err)
	return logger
}

// seedSession installs a small mapped dataset ready for forecasting.
func seedSession(t *testing.T, store *stores.SessionsStore, id string) *session.Session {
	t.Helper()

	sess := session.New(id)
	sess.RawData = [][]string{
		{"2024-01-01", "10"},
		{"2024-01-02", "12"},
		{"2024-01-03", "11"},
		{"2024-01-04", "14"},
	}
	sess.OriginalRaw = cloneRows(sess.RawData)
	sess.Preview = &dataset.Preview{
		Columns: []dataset.Column{
			{Name: "date", Type: dataset.ColumnDate},
			{Name: "sales", Type: dataset.ColumnNumeric},
		},
		Rows:      cloneRows(sess.RawData),
		TotalRows: len(sess.RawData),
		CreatedAt: time.Now().UTC(),
	}
	sess.OriginalPreview = sess.Preview.Clone()
	sess.Mapping = &dataset.ColumnMapping{DateColumn: "date", ValueColumn: "sales"}

	require.NoError(t, store.Create(sess))
	return sess
}
