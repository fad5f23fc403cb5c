package project

import (
	"fmt"
	"math"
	"time"
)

// maxIntervalHours is the largest hour count a time.Duration can hold.
const maxIntervalHours = float64(math.MaxInt64) / float64(time.Hour)

// IntervalFromHours converts an interval entered in hours. Values a Duration cannot hold, and NaN,
// are rejected with ErrInvalidInput; positivity is checked on create.
func IntervalFromHours(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.Abs(hours) >= maxIntervalHours {
		return 0, fmt.Errorf("%w: interval of %v hours is out of range", ErrInvalidInput, hours)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}
