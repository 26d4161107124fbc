package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vedvix/syncledger-extract/constants"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextFriday(t *testing.T) {
	cases := []struct {
		name string
		base time.Time
		want time.Time
	}{
		{"wednesday", day(2024, time.March, 6), day(2024, time.March, 8)},
		{"friday rolls a full week", day(2024, time.March, 8), day(2024, time.March, 15)},
		{"saturday", day(2024, time.March, 9), day(2024, time.March, 15)},
		{"thursday", day(2024, time.March, 7), day(2024, time.March, 8)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyDateTransform(tc.base, constants.TransformNextFriday)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, time.Friday, got.Weekday())
			assert.True(t, got.After(tc.base), "result must be strictly after the base")
		})
	}
}

func TestNextMonday(t *testing.T) {
	got := ApplyDateTransform(day(2024, time.March, 4), constants.TransformNextMonday)
	assert.Equal(t, day(2024, time.March, 11), got)
}

func TestAddDays(t *testing.T) {
	base := day(2025, time.January, 15)
	assert.Equal(t, day(2025, time.February, 14), ApplyDateTransform(base, constants.TransformAdd30Days))
	assert.Equal(t, day(2025, time.March, 16), ApplyDateTransform(base, constants.TransformAdd60Days))
	assert.Equal(t, day(2025, time.April, 15), ApplyDateTransform(base, constants.TransformAdd90Days))
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, day(2024, time.February, 29), ApplyDateTransform(day(2024, time.February, 10), constants.TransformEndOfMonth))
	assert.Equal(t, day(2025, time.February, 28), ApplyDateTransform(day(2025, time.February, 1), constants.TransformEndOfMonth))
	assert.Equal(t, day(2025, time.April, 30), ApplyDateTransform(day(2025, time.April, 30), constants.TransformEndOfMonth))
}

func TestNoneTransformReturnsBase(t *testing.T) {
	base := day(2025, time.June, 3)
	assert.Equal(t, base, ApplyDateTransform(base, constants.TransformNone))
}
