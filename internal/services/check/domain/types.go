// Package domain holds the order check types and ports
package domain

import (
	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/core/phone"
	"fraudshield/internal/core/risk"
)

// Trigger says what kicked off a check
type Trigger int

// Triggers
const (
	TriggerCreated Trigger = iota
	TriggerUpdated
	TriggerManual
)

// String returns the trigger name used in logs
func (t Trigger) String() string {
	switch t {
	case TriggerUpdated:
		return "updated"
	case TriggerManual:
		return "manual"
	default:
		return "created"
	}
}

// Outcome is the terminal state of one check attempt
type Outcome int

// Outcomes
const (
	OutcomeSkippedDisabled Outcome = iota
	OutcomeSkippedNotCOD
	OutcomeSkippedNoPhone
	OutcomeAlreadyChecked
	OutcomeAnnotated
	OutcomeErrorRecorded
)

// String returns the outcome name used in logs and responses
func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedNotCOD:
		return "skipped_not_cod"
	case OutcomeSkippedNoPhone:
		return "skipped_no_phone"
	case OutcomeAlreadyChecked:
		return "already_checked"
	case OutcomeAnnotated:
		return "annotated"
	case OutcomeErrorRecorded:
		return "error_recorded"
	default:
		return "skipped_disabled"
	}
}

// CheckResult is what one check attempt produced
type CheckResult struct {
	Outcome Outcome        `json:"outcome"`
	Phone   phone.Number   `json:"phone,omitempty"`
	Tier    risk.Tier      `json:"-"`
	Risk    riskapi.Result `json:"-"`
}

// Job is one queued check
type Job struct {
	ID      string
	Shop    string
	OrderID int64
	Trigger Trigger
}
