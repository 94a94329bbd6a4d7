package forecast

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedFeatureVector = errors.New("malformed feature vector")
	// ErrSchemaMismatch is a malformed vector whose names or width differ from the fitted schema.
	ErrSchemaMismatch   = fmt.Errorf("%w: schema mismatch", ErrMalformedFeatureVector)
	ErrInvalidHorizon   = errors.New("invalid horizon")
	ErrModelNotFitted   = errors.New("model not fitted")
	ErrInvalidModel     = errors.New("invalid model")
	ErrNonFiniteOutcome = errors.New("non-finite prediction")
)
