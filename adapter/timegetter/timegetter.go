// Package timegetter contains the default [domain.TimeGetter] implementation.
package timegetter

import (
	"time"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// TimeGetter implements [domain.TimeGetter].
type TimeGetter struct{}

// NewTimeGetter returns a new implementation of [domain.TimeGetter].
func NewTimeGetter() domain.TimeGetter {
	return &TimeGetter{}
}

// GetTime implements [domain.TimeGetter]. The result is truncated to
// milliseconds in UTC, the precision of stored dates.
func (t *TimeGetter) GetTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
