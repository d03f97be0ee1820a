// Package bot dispatches Telegram commands and composes every outbound
// notification. Each command passes the admission check before any side
// effect; rejected messages are dropped silently so the bot never reveals
// itself to unauthorized chats.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"butler_bot/internal/calendar"
	"butler_bot/internal/config"
	"butler_bot/internal/store"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Capturer retrieves a still image and returns its local path.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// Bot is the Telegram bot that handles user commands and sends the
// scheduled household notifications.
type Bot struct {
	api       telegramAPI
	cfg       *config.Config
	cfgStore  *store.ConfigStore
	watchlist *store.WatchlistStore
	schedule  *calendar.Schedule
	camera    Capturer
	log       *slog.Logger
	routes    map[string]route

	now  func() time.Time
	pick func(n int) int
}

type handlerFunc func(ctx context.Context, req request, msg *tgbotapi.Message)

type route struct {
	constraints constraints
	handle      handlerFunc
}

// New creates a Bot with the given Telegram token and collaborators. It
// fails when any command's admission constraints are inconsistent, so a
// misconfigured route can never reach production silently.
func New(token string, cfgStore *store.ConfigStore, watchlist *store.WatchlistStore, schedule *calendar.Schedule, cam Capturer, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := &Bot{
		api:       api,
		cfg:       cfgStore.Config(),
		cfgStore:  cfgStore,
		watchlist: watchlist,
		schedule:  schedule,
		camera:    cam,
		log:       log,
		now:       time.Now,
		pick:      rand.IntN,
	}
	if err := b.buildRoutes(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bot) buildRoutes() error {
	b.routes = map[string]route{
		"birthdays":     {constraints{membersOnly: true}, b.handleBirthdays},
		"cake":          {constraints{membersOnly: true}, b.handleCake},
		"done":          {constraints{groupOnly: true, membersOnly: true}, b.handleDone},
		"id":            {constraints{}, b.handleID},
		"next_birthday": {constraints{membersOnly: true}, b.handleNextBirthday},
		"next_trash":    {constraints{membersOnly: true}, b.handleNextTrash},
		"hello":         {constraints{membersOnly: true}, b.handleHello},
		"talk":          {constraints{membersOnly: true, privateChatOnly: true, requireArgs: true}, b.handleTalk},
		"add_film":      {constraints{membersOnly: true}, b.handleAddFilm},
		"random_film":   {constraints{membersOnly: true}, b.handleRandomFilm},
		"list_films":    {constraints{membersOnly: true}, b.handleListFilms},
		"remove_film":   {constraints{membersOnly: true}, b.handleRemoveFilm},
		"picture":       {constraints{membersOnly: true}, b.withTyping(b.handlePicture)},
	}

	for name, r := range b.routes {
		if err := r.constraints.validate(); err != nil {
			return fmt.Errorf("command /%s: %w", name, err)
		}
	}
	return nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	r, ok := b.routes[msg.Command()]
	if !ok || msg.From == nil {
		return
	}

	req := request{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		SentAt: msg.Time(),
		Args:   strings.Fields(msg.CommandArguments()),
	}

	if !b.gate().admit(r.constraints, req) {
		b.log.Debug("message dropped",
			"cmd", msg.Command(),
			"chat_id", req.ChatID,
			"user_id", req.UserID,
		)
		return
	}

	b.log.Debug("command", "cmd", msg.Command(), "chat_id", req.ChatID, "user_id", req.UserID)
	r.handle(ctx, req, msg)
}

func (b *Bot) gate() gate {
	return gate{
		Now:            b.now,
		MaintainerChat: b.cfg.MaintainerChatID,
		GroupChat:      b.cfg.GroupChatID,
		IsMember:       b.cfg.IsMember,
	}
}

// withTyping shows the typing indicator before the wrapped handler runs.
func (b *Bot) withTyping(next handlerFunc) handlerFunc {
	return func(ctx context.Context, req request, msg *tgbotapi.Message) {
		action := tgbotapi.NewChatAction(req.ChatID, tgbotapi.ChatTyping)
		if _, err := b.api.Request(action); err != nil {
			b.log.Debug("send typing action", "chat_id", req.ChatID, "error", err)
		}
		next(ctx, req, msg)
	}
}

// send delivers a plain text message, retrying transient failures.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sendRetry(ctx, msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// sendHTML is send with Telegram HTML formatting enabled.
func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.sendRetry(ctx, msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendRetry(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var sent tgbotapi.Message
	err := retry.Do(
		func() error {
			m, err := b.api.Send(c)
			if err != nil {
				return err
			}
			sent = m
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			b.log.Warn("retrying send", "attempt", n, "error", err)
		}),
	)
	return sent, err
}

// notifyMaintainer sends a private message to the maintainer chat.
func (b *Bot) notifyMaintainer(ctx context.Context, text string) {
	b.send(ctx, b.cfg.MaintainerChatID, text)
}

var animalEmojis = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰", "🐻", "🐼", "🐨", "🐯", "🦁",
	"🐮", "🐷", "🐸", "🐒", "🐔", "🐧", "🐦", "🐤", "🐣", "🐥",
}

// animalEmoji picks uniformly from the fixed set. Purely cosmetic.
func (b *Bot) animalEmoji() string {
	return animalEmojis[b.pick(len(animalEmojis))]
}
