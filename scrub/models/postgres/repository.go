package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/scrub/constants"
	"github.com/CMSgov/scrub-app/scrub/models"
)

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type executable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	sqlFlavor = sqlbuilder.PostgreSQL
)

// Ensure Repository satisfies the interface
var _ models.Repository = &Repository{}

type Repository struct {
	queryable
	executable
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db, db}
}

func NewRepositoryTx(tx *sql.Tx) *Repository {
	return &Repository{tx, tx}
}

func (r *Repository) GetRuleSettings(ctx context.Context) ([]models.RuleSetting, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("rule_id", "enabled", "updated_at").From("rule_settings").OrderBy("rule_id")

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.RuleSetting
	for rows.Next() {
		var s models.RuleSetting
		if err = rows.Scan(&s.RuleID, &s.Enabled, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return settings, nil
}

func (r *Repository) SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) error {
	query, args := sqlbuilder.Buildf(
		"INSERT INTO rule_settings (rule_id, enabled, updated_at) VALUES (%s, %s, NOW()) "+
			"ON CONFLICT (rule_id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()",
		ruleID, enabled).
		BuildWithFlavor(sqlFlavor)

	_, err := r.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) FindDuplicate(ctx context.Context, patientID, serviceDate string, procedureCodes []string) (bool, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("1").From("submitted_claims")
	sb.Where(
		sb.Equal("patient_id", patientID),
		sb.Equal("service_date", serviceDate),
		sb.Equal("procedure_key", ProcedureKey(procedureCodes)),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var found int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// ProcedureKey is the stored form of a procedure set: codes joined by commas.
// Callers pass codes already sorted.
func ProcedureKey(procedureCodes []string) string {
	return strings.Join(procedureCodes, ",")
}

func (r *Repository) CreateBatch(ctx context.Context, batch models.Batch) error {
	ib := sqlFlavor.NewInsertBuilder()
	ib.InsertInto("batches").Cols("id", "status", "claim_count").
		Values(batch.ID, batch.Status, batch.ClaimCount)

	query, args := ib.Build()
	_, err := r.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) UpdateBatchStatus(ctx context.Context, batchID string, status string) error {
	ub := sqlFlavor.NewUpdateBuilder().Update("batches")
	ub.Set(ub.Assign("status", status))
	ub.Where(ub.Equal("id", batchID))

	query, args := ub.Build()
	return r.execSingle(ctx, batchID, query, args)
}

func (r *Repository) CompleteBatch(ctx context.Context, batchID string, result *models.BatchResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal result for batch %s", batchID)
	}

	ub := sqlFlavor.NewUpdateBuilder().Update("batches")
	ub.Set(
		ub.Assign("status", constants.BatchCompleted),
		ub.Assign("result", body),
		"completed_at = NOW()",
	)
	ub.Where(ub.Equal("id", batchID))

	query, args := ub.Build()
	return r.execSingle(ctx, batchID, query, args)
}

func (r *Repository) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("id", "status", "claim_count", "result", "created_at", "completed_at").From("batches")
	sb.Where(sb.Equal("id", batchID))

	query, args := sb.Build()

	var (
		batch       models.Batch
		result      []byte
		completedAt sql.NullTime
	)
	err := r.QueryRowContext(ctx, query, args...).
		Scan(&batch.ID, &batch.Status, &batch.ClaimCount, &result, &batch.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if completedAt.Valid {
		batch.CompletedAt = completedAt.Time
	}
	if len(result) > 0 {
		batch.Result = &models.BatchResult{}
		if err := json.Unmarshal(result, batch.Result); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal result for batch %s", batchID)
		}
	}

	return &batch, nil
}

func (r *Repository) execSingle(ctx context.Context, batchID, query string, args []interface{}) error {
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("batch %s not updated, no row found", batchID)
	}

	return nil
}
