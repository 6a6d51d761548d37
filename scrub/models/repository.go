package models

import "context"

// Repository contains all of the CRUD methods represented in the models package from the storage layer
type Repository interface {
	RuleSettingRepository
	ClaimRepository
	BatchRepository
}

// RuleSettingRepository persists rule enable/disable toggles.
type RuleSettingRepository interface {
	GetRuleSettings(ctx context.Context) ([]RuleSetting, error)

	SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) error
}

// ClaimRepository reads the store of previously submitted claims.
type ClaimRepository interface {
	// FindDuplicate reports whether a claim for the same patient, service date
	// and procedure set has already been submitted.
	FindDuplicate(ctx context.Context, patientID, serviceDate string, procedureCodes []string) (bool, error)
}

type BatchRepository interface {
	CreateBatch(ctx context.Context, batch Batch) error

	UpdateBatchStatus(ctx context.Context, batchID string, status string) error

	CompleteBatch(ctx context.Context, batchID string, result *BatchResult) error

	// GetBatch returns nil when no batch has the given id.
	GetBatch(ctx context.Context, batchID string) (*Batch, error)
}
