// internal/prompt/repository.go
package prompt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "prompt-registry/internal/common/errors"
	"prompt-registry/internal/common/logger"

	"github.com/google/uuid"
)

const versionColumns = `id, name, version, state, content, config, commit_message, created_by, created_at, updated_at`

// Repository persists template versions in PostgreSQL. All state
// changes run inside a transaction so the single-production-per-name
// invariant holds under concurrent promotes.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "prompt-repository"}),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVersion(row rowScanner) (*PromptVersion, error) {
	var (
		v      PromptVersion
		state  string
		config []byte
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.Version, &state, &v.Content, &config,
		&v.CommitMessage, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.State = State(state)
	// Config lands here as JSONB text; bad or non-object payloads
	// normalize to an empty map instead of failing the load.
	v.Config = normalizeConfig(config)
	return &v, nil
}

// Insert stores a new draft version, assigning the next version number
// for the name inside a transaction.
func (r *Repository) Insert(ctx context.Context, v *PromptVersion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError(err)
	}
	defer tx.Rollback()

	// Version numbers come from a per-name counter so they only ever
	// grow, even after a version row is deleted out from under us.
	var nextVersion int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO prompt_name_counters (name, last_version)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET last_version = prompt_name_counters.last_version + 1
		RETURNING last_version`, v.Name).Scan(&nextVersion)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError(err)
	}

	now := time.Now().UTC()
	v.ID = uuid.New().String()
	v.Version = nextVersion
	v.State = StateDraft
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.Config == nil {
		v.Config = map[string]interface{}{}
	}

	configJSON, err := json.Marshal(v.Config)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prompt_versions (
			id, name, version, state, content, config,
			commit_message, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		v.ID, v.Name, v.Version, string(v.State), v.Content, configJSON,
		v.CommitMessage, v.CreatedBy, now,
	)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewQueryExecutionFailedError(err)
	}

	r.logger.Info("template version created", map[string]interface{}{
		"name":    v.Name,
		"version": v.Version,
	})
	return nil
}

// GetByVersion returns one version, or nil when absent.
func (r *Repository) GetByVersion(ctx context.Context, name string, version int) (*PromptVersion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM prompt_versions
		WHERE name = $1 AND version = $2`, name, version)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	return v, nil
}

// GetByState returns the newest version of name in the given state, or
// nil when absent.
func (r *Repository) GetByState(ctx context.Context, name string, state State) (*PromptVersion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM prompt_versions
		WHERE name = $1 AND state = $2
		ORDER BY version DESC
		LIMIT 1`, name, string(state))

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	return v, nil
}

// ListVersions returns every version of name, newest first.
func (r *Repository) ListVersions(ctx context.Context, name string) ([]*PromptVersion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM prompt_versions
		WHERE name = $1
		ORDER BY version DESC`, name)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var versions []*PromptVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	return versions, nil
}

// ProductionNames returns every name that currently has a production
// version.
func (r *Repository) ProductionNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT name
		FROM prompt_versions
		WHERE state = $1
		ORDER BY name`, string(StateProduction))
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	return names, nil
}

// UpdateDraft replaces content and config on a draft version. Production
// and archived versions are immutable; the guard fires before anything
// is written.
func (r *Repository) UpdateDraft(ctx context.Context, name string, version int, content string, cfg map[string]interface{}) (*PromptVersion, error) {
	target, err := r.GetByVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, commonerrors.NewTemplateNotFoundError(name, fmt.Sprintf("version: %d", version))
	}
	if !target.Mutable() {
		return nil, commonerrors.NewImmutableVersionError(name, version, string(target.State))
	}

	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		UPDATE prompt_versions
		SET content = $1, config = $2, updated_at = $3
		WHERE id = $4 AND state = $5`,
		content, configJSON, now, target.ID, string(StateDraft),
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}

	target.Content = content
	target.Config = cfg
	target.UpdatedAt = now
	return target, nil
}

// Transition applies one lifecycle event to (name, version). Moves into
// production archive every competing production version in the same
// transaction, which is what keeps the at-most-one-production invariant
// closed under concurrent promotes. Promoting a version already in
// production is a no-op.
func (r *Repository) Transition(ctx context.Context, name string, version int, event Event) (*PromptVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM prompt_versions
		WHERE name = $1 AND version = $2
		FOR UPDATE`, name, version)

	target, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewTemplateNotFoundError(name, fmt.Sprintf("version: %d", version))
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}

	if event == EventPromote && target.State == StateProduction {
		return target, nil
	}

	to, err := Transition(target.State, event)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if to == StateProduction {
		_, err = tx.ExecContext(ctx, `
			UPDATE prompt_versions
			SET state = $1, updated_at = $2
			WHERE name = $3 AND state = $4 AND version <> $5`,
			string(StateArchived), now, name, string(StateProduction), version,
		)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(err)
		}

		// Invariant check after archiving competitors; anything left
		// means the table is already corrupt and the write must not land.
		var remaining int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM prompt_versions
			WHERE name = $1 AND state = $2 AND version <> $3`,
			name, string(StateProduction), version).Scan(&remaining)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(err)
		}
		if remaining > 0 {
			return nil, commonerrors.NewDuplicateProductionError(name)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE prompt_versions
		SET state = $1, updated_at = $2
		WHERE id = $3`,
		string(to), now, target.ID,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(err)
	}

	r.logger.Info("template state changed", map[string]interface{}{
		"name":    name,
		"version": version,
		"from":    string(target.State),
		"to":      string(to),
	})

	target.State = to
	target.UpdatedAt = now
	return target, nil
}
