package mapping

import (
	"time"

	"github.com/vedvix/syncledger-extract/constants"
)

// ApplyDateTransform shifts a base date according to the transform.
// NextFriday and NextMonday always land strictly in the future: a
// Friday base yields the Friday a week out.
func ApplyDateTransform(base time.Time, transform constants.DateTransform) time.Time {
	switch transform {
	case constants.TransformNextFriday:
		return nextWeekday(base, time.Friday)
	case constants.TransformNextMonday:
		return nextWeekday(base, time.Monday)
	case constants.TransformAdd30Days:
		return base.AddDate(0, 0, 30)
	case constants.TransformAdd60Days:
		return base.AddDate(0, 0, 60)
	case constants.TransformAdd90Days:
		return base.AddDate(0, 0, 90)
	case constants.TransformEndOfMonth:
		return endOfMonth(base)
	default:
		return base
	}
}

func nextWeekday(d time.Time, weekday time.Weekday) time.Time {
	daysAhead := int(weekday) - int(d.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return d.AddDate(0, 0, daysAhead)
}

func endOfMonth(d time.Time) time.Time {
	firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
