package bot

import (
	"time"

	"butler_bot/internal/model"
)

// nextBirthday finds the entry whose next occurrence is soonest and the
// number of calendar days until it. A birthday falling on today counts as
// next year's occurrence. Ties go to the first entry in configured order.
func nextBirthday(bdays model.Birthdays, today time.Time) (model.Birthday, int, bool) {
	if len(bdays) == 0 {
		return model.Birthday{}, 0, false
	}

	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var next model.Birthday
	minDays := -1
	for _, e := range bdays {
		occ := time.Date(today.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
		if !occ.After(midnight) {
			occ = time.Date(today.Year()+1, e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
		}
		days := int(occ.Sub(midnight).Hours() / 24)
		if minDays < 0 || days < minDays {
			next = e
			minDays = days
		}
	}
	return next, minDays, true
}

// isBirthdayOn compares day and month only, so the birth year is ignored.
func isBirthdayOn(date, today time.Time) bool {
	return date.Day() == today.Day() && date.Month() == today.Month()
}
