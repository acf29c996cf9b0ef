package lgd

import (
	"errors"
	"fmt"

	"lgd_site/models"
)

var (
	// ErrAggregationUnavailable means at least one input dataset of the
	// state wise summary failed to load.
	ErrAggregationUnavailable = errors.New("lgd: aggregation unavailable")

	// ErrMissingColumn means the CSV header lacks an expected column.
	ErrMissingColumn = errors.New("lgd: missing expected column")

	// ErrUnexpectedStatus means the remote endpoint answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("lgd: unexpected http status")

	// ErrUnknownTier means no spec is registered for the tier.
	ErrUnknownTier = errors.New("lgd: unknown tier")
)

// DataLoadError reports a failed fetch or parse of one tier.
type DataLoadError struct {
	Tier   models.Tier
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s data from %s: %v", e.Tier, e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// IsDataLoadError reports whether err wraps a *DataLoadError.
func IsDataLoadError(err error) bool {
	var dle *DataLoadError
	return errors.As(err, &dle)
}
