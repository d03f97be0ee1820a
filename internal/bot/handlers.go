package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"butler_bot/internal/calendar"
	"butler_bot/internal/store"
)

func (b *Bot) handleBirthdays(ctx context.Context, req request, _ *tgbotapi.Message) {
	b.sendHTML(ctx, req.ChatID, FormatBirthdayList(b.cfg.Birthdays))
}

func (b *Bot) handleCake(ctx context.Context, req request, _ *tgbotapi.Message) {
	candidates := b.cfg.Birthdays.Names()
	if len(candidates) == 0 {
		b.send(ctx, req.ChatID, msgNoBirthdays)
		return
	}
	name := candidates[b.pick(len(candidates))]
	b.send(ctx, req.ChatID, "🍰 The next cake will be baked by "+name+"!")
}

// handleDone closes the open trash cycle. Outside a cycle it is a silent
// no-op, like any other inadmissible message.
func (b *Bot) handleDone(ctx context.Context, req request, msg *tgbotapi.Message) {
	if !b.cfgStore.AwaitingAck() {
		return
	}

	if err := b.cfgStore.SetAwaitingAck(false); err != nil {
		b.log.Error("persist config", "error", err)
		b.send(ctx, req.ChatID, "Could not save the update: "+err.Error())
		return
	}
	b.send(ctx, req.ChatID, "Thanks, "+msg.From.FirstName+"!")
}

func (b *Bot) handleID(ctx context.Context, req request, msg *tgbotapi.Message) {
	text := fmt.Sprintf("This chat's ID is: %d %s\nYour ID is: %d %s\nYour name is: %s %s",
		req.ChatID, b.animalEmoji(),
		req.UserID, b.animalEmoji(),
		msg.From.FirstName, b.animalEmoji(),
	)
	b.send(ctx, req.ChatID, text)
}

func (b *Bot) handleNextBirthday(ctx context.Context, req request, _ *tgbotapi.Message) {
	next, _, ok := nextBirthday(b.cfg.Birthdays, b.now().In(b.cfg.Location()))
	if !ok {
		b.send(ctx, req.ChatID, msgNoBirthdays)
		return
	}
	b.sendHTML(ctx, req.ChatID, FormatNextBirthday(next.Name, next.Date)+" "+b.animalEmoji())
}

func (b *Bot) handleNextTrash(ctx context.Context, req request, _ *tgbotapi.Message) {
	today := calendar.DateOf(b.now().In(b.cfg.Location()))
	day, code, ok := b.schedule.NextAfter(today)
	if !ok {
		b.send(ctx, req.ChatID, msgNoTrashEvents)
		return
	}
	b.sendHTML(ctx, req.ChatID, FormatNextTrash(b.cfg.CanName(code), day))
}

func (b *Bot) handleHello(ctx context.Context, req request, _ *tgbotapi.Message) {
	b.send(ctx, req.ChatID, "Hello there! "+b.animalEmoji())
}

// handleTalk relays the arguments to the group chat verbatim, stripped of
// the sender's identity.
func (b *Bot) handleTalk(ctx context.Context, req request, _ *tgbotapi.Message) {
	b.send(ctx, b.cfg.GroupChatID, strings.Join(req.Args, " "))
}

func (b *Bot) handleAddFilm(ctx context.Context, req request, _ *tgbotapi.Message) {
	if len(req.Args) == 0 {
		b.send(ctx, req.ChatID, msgUsageAddFilm)
		return
	}

	film := strings.Join(req.Args, " ")
	switch err := b.watchlist.Add(film); {
	case errors.Is(err, store.ErrDuplicateFilm):
		b.send(ctx, req.ChatID, fmt.Sprintf("Film %q already in watchlist!", film))
	case err != nil:
		b.log.Error("persist watchlist", "error", err)
		b.send(ctx, req.ChatID, "Could not save the watchlist: "+err.Error())
	default:
		b.send(ctx, req.ChatID, fmt.Sprintf("Added film %q to the watchlist", film))
	}
}

func (b *Bot) handleRandomFilm(ctx context.Context, req request, _ *tgbotapi.Message) {
	films := b.watchlist.Films()
	if len(films) == 0 {
		b.send(ctx, req.ChatID, msgNoFilms)
		return
	}
	b.send(ctx, req.ChatID, films[b.pick(len(films))])
}

func (b *Bot) handleListFilms(ctx context.Context, req request, _ *tgbotapi.Message) {
	b.send(ctx, req.ChatID, FormatFilmList(b.watchlist.Films()))
}

func (b *Bot) handleRemoveFilm(ctx context.Context, req request, _ *tgbotapi.Message) {
	if len(req.Args) == 0 {
		b.send(ctx, req.ChatID, msgUsageRmFilm)
		return
	}

	film := strings.Join(req.Args, " ")
	switch err := b.watchlist.Remove(film); {
	case errors.Is(err, store.ErrFilmNotFound):
		b.send(ctx, req.ChatID, fmt.Sprintf("Film %q not in watchlist! Spelling correct?", film))
	case err != nil:
		b.log.Error("persist watchlist", "error", err)
		b.send(ctx, req.ChatID, "Could not save the watchlist: "+err.Error())
	default:
		b.send(ctx, req.ChatID, fmt.Sprintf("Removed %q from watchlist", film))
	}
}

// handlePicture sends a transient placeholder, runs the capture, and
// either swaps the placeholder for the image or edits it into an error
// message so the user is never left staring at "Capturing image...".
func (b *Bot) handlePicture(ctx context.Context, req request, _ *tgbotapi.Message) {
	placeholder, err := b.sendRetry(ctx, tgbotapi.NewMessage(req.ChatID, msgCapturing))
	if err != nil {
		b.log.Error("send placeholder", "chat_id", req.ChatID, "error", err)
		return
	}

	path, err := b.camera.Capture(ctx)
	if err != nil {
		b.log.Error("capture image", "error", err)
		edit := tgbotapi.NewEditMessageText(req.ChatID, placeholder.MessageID, "Error capturing image: "+err.Error())
		if _, err := b.sendRetry(ctx, edit); err != nil {
			b.log.Error("edit placeholder", "chat_id", req.ChatID, "error", err)
		}
		return
	}

	del := tgbotapi.NewDeleteMessage(req.ChatID, placeholder.MessageID)
	if _, err := b.api.Request(del); err != nil {
		b.log.Error("delete placeholder", "chat_id", req.ChatID, "error", err)
	}

	photo := tgbotapi.NewPhoto(req.ChatID, tgbotapi.FilePath(path))
	if _, err := b.sendRetry(ctx, photo); err != nil {
		b.log.Error("send photo", "chat_id", req.ChatID, "error", err)
		b.send(ctx, req.ChatID, "Error sending image: "+err.Error())
	}
}
