package boosting

import "errors"

// Sentinel errors returned by Booster/ThreadState operations. Callers
// should match them with errors.Is, not string comparison.
var (
	ErrInvalidHandle      = errors.New("boosting: invalid handle")
	ErrGroupIndexRange    = errors.New("boosting: group index out of range")
	ErrDimIndexRange      = errors.New("boosting: dimension index out of range")
	ErrLengthMismatch     = errors.New("boosting: value length mismatch")
	ErrWeightsUnsupported = errors.New("boosting: sample weights are not supported")
	ErrNoPendingUpdate    = errors.New("boosting: ApplyUpdate called with no pending GenerateUpdate result")
)
