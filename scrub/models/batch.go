package models

import "time"

// Batch tracks an asynchronous batch validation request.
type Batch struct {
	ID          string
	Status      string
	ClaimCount  int
	Result      *BatchResult
	CreatedAt   time.Time
	CompletedAt time.Time
}

// RuleSetting is a persisted administrator toggle for a catalog rule.
type RuleSetting struct {
	RuleID    string
	Enabled   bool
	UpdatedAt time.Time
}

// ValidateBatchArgs is the payload of a ValidateBatch queue job.
type ValidateBatchArgs struct {
	BatchID    string     `json:"batchId"`
	Claims     []Claim    `json:"claims"`
	Categories []Category `json:"categories,omitempty"`
}
