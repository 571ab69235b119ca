package subscription

import (
	"errors"
	"fmt"
	"time"
)

// Frequency is how often a subscription delivers.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

var ErrInvalidFrequency = errors.New("invalid subscription frequency")

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

func (f Frequency) String() string { return string(f) }

// DeliveryDays is the approximate calendar length of one delivery cycle.
func (f Frequency) DeliveryDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 30
	case FrequencyQuarterly:
		return 90
	default:
		return 0
	}
}

// BillingInterval maps the frequency to the gateway's (count, unit) vocabulary
// for recurring agreements.
func (f Frequency) BillingInterval() (int, string) {
	switch f {
	case FrequencyWeekly:
		return 1, "weeks"
	case FrequencyBiweekly:
		return 2, "weeks"
	case FrequencyMonthly:
		return 1, "months"
	case FrequencyQuarterly:
		return 3, "months"
	default:
		return 0, ""
	}
}

// NextDelivery advances one cycle from the later of now and the previous
// delivery date, so late activations do not schedule deliveries in the past.
func (f Frequency) NextDelivery(now time.Time, previous *time.Time) time.Time {
	base := now
	if previous != nil && previous.After(now) {
		base = *previous
	}
	return base.AddDate(0, 0, f.DeliveryDays())
}
