package runtime

import "errors"

var (
	ErrEmptyTransaction       = errors.New("runtime: transaction has no instructions")
	ErrAlreadyProcessed       = errors.New("runtime: transaction already processed")
	ErrMissingSignature       = errors.New("runtime: account marked as signer did not sign")
	ErrUnknownProgram         = errors.New("runtime: unknown program")
	ErrProgramExists          = errors.New("runtime: program already registered")
	ErrAccountNotListed       = errors.New("runtime: account not listed in instruction")
	ErrAccountNotWritable     = errors.New("runtime: account not writable")
	ErrExternalLamportSpend   = errors.New("runtime: program debited an account it does not own")
	ErrExternalDataModified   = errors.New("runtime: program modified data of an account it does not own")
	ErrExternalOwnerChange    = errors.New("runtime: program reassigned an account it does not own")
	ErrPrivilegeEscalation    = errors.New("runtime: cross-program invocation escalated account privileges")
	ErrInvokeDepthExceeded    = errors.New("runtime: cross-program invocation depth exceeded")
	ErrLamportsNotConserved   = errors.New("runtime: lamport total changed")
	ErrLamportSumOverflow     = errors.New("runtime: lamport sum overflow")
	ErrSignerSeedsUnderivable = errors.New("runtime: signer seeds do not derive a program address")
)
