package order

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// DeliverySchedule is the delivery date and time slot chosen at checkout
type DeliverySchedule struct {
	Date     time.Time `json:"date"`
	TimeSlot string    `json:"time_slot"`
}

// DefaultTimeSlots are the delivery windows offered to shoppers
var DefaultTimeSlots = []string{"09:00-12:00", "12:00-15:00", "15:00-18:00", "18:00-21:00"}

// DeliveryPolicy describes which delivery dates and slots are bookable
type DeliveryPolicy struct {
	// MinLeadDays is the number of calendar days between today and the earliest bookable date
	MinLeadDays int
	// ClosedWeekdays are never bookable
	ClosedWeekdays []time.Weekday
	// TimeSlots lists the accepted slot labels
	TimeSlots []string
	// Location is the store time zone used to decide what "today" is
	Location *time.Location
}

// DefaultDeliveryPolicy requires two days of lead time, no Sundays, and one of DefaultTimeSlots
func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{
		MinLeadDays:    2,
		ClosedWeekdays: []time.Weekday{time.Sunday},
		TimeSlots:      DefaultTimeSlots,
		Location:       time.UTC,
	}
}

// Validate checks a schedule against the policy at the given instant.
// Dates are compared at day granularity in the policy's time zone.
func (p DeliveryPolicy) Validate(s DeliverySchedule, now time.Time) error {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	violations := make(map[string]string)

	if s.Date.IsZero() {
		violations["purchase_date"] = "delivery date is required"
	} else {
		day := truncateDay(s.Date.In(loc))
		earliest := truncateDay(now.In(loc)).AddDate(0, 0, p.MinLeadDays)
		if day.Before(earliest) {
			violations["purchase_date"] = "delivery date must be at least " + strconv.Itoa(p.MinLeadDays) + " days from today"
		} else if slices.Contains(p.ClosedWeekdays, day.Weekday()) {
			violations["purchase_date"] = "no deliveries on " + day.Weekday().String()
		}
	}

	slot := strings.TrimSpace(s.TimeSlot)
	switch {
	case slot == "":
		violations["preferred_delivery_time"] = "delivery time slot is required"
	case len(p.TimeSlots) > 0 && !slices.Contains(p.TimeSlots, slot):
		violations["preferred_delivery_time"] = "unknown delivery time slot"
	}

	if len(violations) > 0 {
		return shared.NewValidationError(violations)
	}
	return nil
}

// ValidateDeliverySchedule validates against DefaultDeliveryPolicy
func ValidateDeliverySchedule(s DeliverySchedule, now time.Time) error {
	return DefaultDeliveryPolicy().Validate(s, now)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
