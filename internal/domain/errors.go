package domain

import "errors"

// Error taxonomy for the estimation and evaluation pipeline.
//
// DataIntegrity and InsufficientHistory are fatal to the whole run.
// ContractViolation is fatal to a single strategy's evaluation.
// PhaseDataMissing is fatal to a single (strategy, phase) pair.
// All of these are deterministic functions of the input data, so nothing
// here is ever retried.
var (
	// ErrDataIntegrity indicates a non-positive price or misaligned series lengths.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrInsufficientHistory indicates too few observations for return or
	// covariance computation.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrContractViolation indicates a strategy's weight mapping does not
	// cover exactly the expected symbol set, or a noise filter changed the
	// shape of the covariance matrix.
	ErrContractViolation = errors.New("contract violation")

	// ErrPhaseDataMissing indicates a required price series is absent for a
	// specific evaluation phase.
	ErrPhaseDataMissing = errors.New("phase data missing")
)
