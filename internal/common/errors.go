// Package common provides shared errors used across the application.
package common

import "errors"

// Common application errors.
var (
	// Persistence errors.
	ErrNotFound              = errors.New("not found")
	ErrStaleWorkflow         = errors.New("workflow was modified by another writer")
	ErrClaimAlreadyProcessed = errors.New("claim document already processed")

	// Workflow errors.
	ErrInvalidStateTransition  = errors.New("invalid workflow state transition")
	ErrClaimSimulationMismatch = errors.New("claim does not match the revision's simulated overpayment")

	// Ledger simulation failure kinds, mapped by the gateway collaborator.
	ErrOutsideBusinessHours   = errors.New("ledger is outside business hours")
	ErrSubjectNotFound        = errors.New("subject not found at ledger")
	ErrNoScheduleForStartDate = errors.New("no payment schedule for start date")
	ErrCaseNotFoundAtLedger   = errors.New("case does not exist at ledger")
	ErrLedgerFunctionalFault  = errors.New("ledger reported a functional fault")
	ErrLedgerTechnicalFault   = errors.New("ledger reported a technical fault")
)
