package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Duration is how long an event lasts. The zero value means "not set".
type Duration struct {
	hours   int
	minutes int
}

func NewDuration(hours, minutes int) (Duration, error) {
	if hours < 0 {
		return Duration{}, invalidArgument("duration hours", "must not be negative")
	}
	if minutes < 0 {
		return Duration{}, invalidArgument("duration minutes", "must not be negative")
	}
	if hours == 0 && minutes == 0 {
		return Duration{}, invalidArgument("duration", "must be greater than zero")
	}
	return Duration{hours: hours, minutes: minutes}, nil
}

func (d Duration) Hours() int { return d.hours }
func (d Duration) Minutes() int { return d.minutes }
func (d Duration) IsZero() bool { return d.hours == 0 && d.minutes == 0 }

// Total returns the duration as a time.Duration.
func (d Duration) Total() time.Duration {
	return time.Duration(d.hours)*time.Hour + time.Duration(d.minutes)*time.Minute
}

// EventDate is the day an event takes place. It may not be earlier than
// today when created; comparison is done on UTC calendar days.
type EventDate struct {
	value time.Time
}

func NewEventDate(t, now time.Time) (EventDate, error) {
	if t.IsZero() {
		return EventDate{}, nullValue("date")
	}
	if startOfDay(t).Before(startOfDay(now)) {
		return EventDate{}, invalidArgument("date", "must be today or in the future")
	}
	return EventDate{value: t.UTC()}, nil
}

func (d EventDate) Time() time.Time { return d.value }

func (d EventDate) Equal(other EventDate) bool {
	return d.value.Equal(other.value)
}

func startOfDay(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Price limits match the sections.price column, NUMERIC(12, 2).
const priceScale = 2

var maxPrice = decimal.New(1, 10)

// Price is a non-negative ticket price with at most two decimal places,
// below 10^10.
type Price struct {
	amount decimal.Decimal
}

func NewPrice(amount decimal.Decimal) (Price, error) {
	if amount.IsNegative() {
		return Price{}, invalidArgument("price", "must not be negative")
	}
	if !amount.Equal(amount.Truncate(priceScale)) {
		return Price{}, invalidArgument("price", "must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxPrice) {
		return Price{}, invalidArgument("price", "must be less than 10000000000")
	}
	return Price{amount: amount}, nil
}

func (p Price) Amount() decimal.Decimal { return p.amount }

func (p Price) Equal(other Price) bool {
	return p.amount.Equal(other.amount)
}

func (p Price) String() string {
	return p.amount.StringFixed(2)
}
