package bot

import (
	"context"

	"butler_bot/internal/calendar"
)

// Scheduler-driven callbacks. The trash-day logic is a small state
// machine over the persisted waiting_for_disable flag: a daily check
// opens a cycle when a collection is due tomorrow, an acknowledgment or
// the unconditional morning reset closes it.

// StartupNotice informs the maintainer that the bot is up.
func (b *Bot) StartupNotice(ctx context.Context) {
	b.notifyMaintainer(ctx, msgStartup)
}

// DailyTrashCheck looks up tomorrow in the waste-event map and, on a hit,
// notifies the group and opens the acknowledgment cycle. It also warns
// the maintainer once when today is the last known calendar date, so the
// data source can be refreshed before it runs out.
func (b *Bot) DailyTrashCheck(ctx context.Context) {
	today := calendar.DateOf(b.now().In(b.cfg.Location()))

	if last, ok := b.schedule.Last(); ok && last == today {
		b.notifyMaintainer(ctx, msgCalendarEnd)
	}

	code, ok := b.schedule.CanOn(today.AddDays(1))
	if !ok {
		b.log.Debug("no trash collection tomorrow")
		return
	}

	b.send(ctx, b.cfg.GroupChatID, FormatTrashNotification(b.cfg.CanName(code))+" "+b.animalEmoji())
	if err := b.cfgStore.SetAwaitingAck(true); err != nil {
		b.log.Error("persist config", "error", err)
		b.notifyMaintainer(ctx, "Could not save the trash flag: "+err.Error())
	}
}

// TrashReminder nags the group while a cycle is still open. It is a
// no-op once the task was acknowledged or no collection was due.
func (b *Bot) TrashReminder(ctx context.Context) {
	if !b.cfgStore.AwaitingAck() {
		return
	}
	b.send(ctx, b.cfg.GroupChatID, msgTrashReminder+" "+b.animalEmoji())
}

// ResetTrashFlag unconditionally closes the cycle in case nobody
// acknowledged the notification.
func (b *Bot) ResetTrashFlag(ctx context.Context) {
	if err := b.cfgStore.SetAwaitingAck(false); err != nil {
		b.log.Error("persist config", "error", err)
		b.notifyMaintainer(ctx, "Could not save the trash flag: "+err.Error())
	}
}

// DailyBirthdayCheck greets everyone whose birthday is today. Multiple
// matches each get their own message.
func (b *Bot) DailyBirthdayCheck(ctx context.Context) {
	today := b.now().In(b.cfg.Location())
	for _, e := range b.cfg.Birthdays {
		if !isBirthdayOn(e.Date, today) {
			continue
		}
		b.log.Info("birthday today", "name", e.Name)
		b.send(ctx, b.cfg.GroupChatID, FormatBirthdayGreeting(e.Name)+" "+b.animalEmoji())
	}
}
