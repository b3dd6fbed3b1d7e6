package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
)

// ErrModelNotFound is returned when a model id has no registry row.
var ErrModelNotFound = errors.New("model not found in registry")

// Model is one fitted model's metadata, enough to rank configurations
// without retaining the forecast series itself.
type Model struct {
	ModelID   string           `json:"modelId"`
	SessionID string           `json:"sessionId"`
	Label     string           `json:"label"`
	Config    *forecast.Config `json:"config"`
	Metrics   forecast.Metrics `json:"metrics"`
	Horizon   int              `json:"horizon"`
	Growth    string           `json:"growth"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Repository provides model registry persistence.
type Repository struct {
	db *Database
}

// NewRepository creates a registry repository.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// Save inserts a fitted model's metadata.
func (r *Repository) Save(ctx context.Context, m *Model) error {
	configJSON, err := json.Marshal(m.Config)
	if err != nil {
		return err
	}
	metricsJSON, err := json.Marshal(m.Metrics)
	if err != nil {
		return err
	}

	_, err = r.db.Conn.ExecContext(ctx, `
		INSERT INTO models (model_id, session_id, label, config_json, metrics_json, horizon, growth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ModelID, m.SessionID, m.Label, string(configJSON), string(metricsJSON),
		m.Horizon, m.Growth, m.CreatedAt.UTC())
	return err
}

// Get retrieves one model by id, scoped to a session.
func (r *Repository) Get(ctx context.Context, sessionID, modelID string) (*Model, error) {
	row := r.db.Conn.QueryRowContext(ctx, `
		SELECT model_id, session_id, label, config_json, metrics_json, horizon, growth, created_at
		FROM models WHERE session_id = ? AND model_id = ?`, sessionID, modelID)

	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	return m, err
}

// ListBySession returns every model registered for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]*Model, error) {
	rows, err := r.db.Conn.QueryContext(ctx, `
		SELECT model_id, session_id, label, config_json, metrics_json, horizon, growth, created_at
		FROM models WHERE session_id = ? ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	models := make([]*Model, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// UpdateLabel renames a model, scoped to a session.
func (r *Repository) UpdateLabel(ctx context.Context, sessionID, modelID, label string) error {
	result, err := r.db.Conn.ExecContext(ctx,
		`UPDATE models SET label = ? WHERE session_id = ? AND model_id = ?`,
		label, sessionID, modelID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrModelNotFound
	}
	return nil
}

// Delete removes one model from a session's registry.
func (r *Repository) Delete(ctx context.Context, sessionID, modelID string) error {
	result, err := r.db.Conn.ExecContext(ctx,
		`DELETE FROM models WHERE session_id = ? AND model_id = ?`, sessionID, modelID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrModelNotFound
	}
	return nil
}

// PurgeSession removes every model for a session. Called on session clear
// and expiry so the registry never outlives the session it describes.
func (r *Repository) PurgeSession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.Conn.ExecContext(ctx,
		`DELETE FROM models WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the total registered model count across sessions.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*Model, error) {
	var m Model
	var configJSON, metricsJSON string

	if err := row.Scan(&m.ModelID, &m.SessionID, &m.Label, &configJSON, &metricsJSON,
		&m.Horizon, &m.Growth, &m.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(configJSON), &m.Config); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metricsJSON), &m.Metrics); err != nil {
		return nil, err
	}
	return &m, nil
}
