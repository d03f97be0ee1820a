package bot

import (
	"fmt"
	"strings"
	"time"

	"butler_bot/internal/calendar"
	"butler_bot/internal/model"
)

// Fixed user-facing texts. Tests pin these, so change with care.
const (
	msgStartup        = "bot started"
	msgCalendarEnd    = "End of calendar reached!"
	msgTrashReminder  = "Friendly reminder!"
	msgNoBirthdays    = "No entries found."
	msgNoFilms        = "No films on watchlist :("
	msgEmptyWatchlist = "---Empty---"
	msgNoTrashEvents  = "No more trash events found! Is the calendar up to date?"
	msgCapturing      = "Capturing image..."
	msgUsageAddFilm   = "Usage: /add_film [film title]"
	msgUsageRmFilm    = "Usage: /remove_film [film title]"
)

// FormatBirthdayList renders the birthday table, one entry per line.
func FormatBirthdayList(bdays model.Birthdays) string {
	if len(bdays) == 0 {
		return msgNoBirthdays
	}
	var b strings.Builder
	b.WriteString("All birthdays:")
	for _, e := range bdays {
		fmt.Fprintf(&b, "\n%s  %s", e.Name, e.Date.Format(model.BirthdateLayout))
	}
	return b.String()
}

// FormatNextBirthday renders the next-birthday announcement.
func FormatNextBirthday(name string, date time.Time) string {
	return fmt.Sprintf("Next birthday: <b>%s</b> at <b>%s</b>", name, date.Format("02.01."))
}

// FormatNextTrash renders the next collection day with its weekday.
func FormatNextTrash(can string, day calendar.Date) string {
	weekday := day.Time(time.UTC).Weekday().String()
	return fmt.Sprintf("Next trash can: <b>%s</b> on <b>%s</b> morning, %s",
		can, weekday, day.Time(time.UTC).Format("02.01."))
}

// FormatTrashNotification renders the evening put-out notification.
func FormatTrashNotification(can string) string {
	return "Please put out tonight: " + can
}

// FormatBirthdayGreeting renders the daily greeting for one person.
func FormatBirthdayGreeting(name string) string {
	return "Happy Birthday, " + name + "!"
}

// FormatFilmList renders each title on its own line.
func FormatFilmList(films []string) string {
	if len(films) == 0 {
		return msgEmptyWatchlist
	}
	return strings.Join(films, "\n")
}
