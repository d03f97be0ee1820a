package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"butler_bot/internal/calendar"
	"butler_bot/internal/store"
)

const (
	testGroupChat      = int64(-22222)
	testMaintainerChat = int64(11111)
	testMember         = int64(100)
	testStranger       = int64(999)
)

// testNow maps to 2025-09-01 in Europe/Amsterdam; the test calendar has a
// collection on 2025-09-02 (PAP) and its last entry on 2025-09-15 (ORG).
var testNow = time.Date(2025, 9, 1, 16, 55, 0, 0, time.UTC)

const testConfig = `token: "test-token"
maintainer_chat_id: 11111
group_chat_id: -22222
member_ids: [100]
birthdays:
  Anna: 15/06/1985
  Bob: 01/01/1990
ics_trash_cans:
  PAP: Paper
  ORG: Organic
selected_trash_cans: [PAP, ORG]
trash_msg_time: "19:00:00"
snooze_time: "00:30:00"
birthday_msg_time: "09:00:00"
waiting_for_disable: false
timezone: Europe/Amsterdam
`

const testCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:1\r\nDTSTART;VALUE=DATE:20250902\r\nDESCRIPTION:PAP Papier\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:2\r\nDTSTART;VALUE=DATE:20250915\r\nDESCRIPTION:ORG Biotonne\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type mockAPI struct {
	mu       sync.Mutex
	sent     []sentMsg
	edits    []sentMsg
	photos   []string
	deletes  []int
	requests []tgbotapi.Chattable
	nextID   int
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	switch msg := c.(type) {
	case tgbotapi.MessageConfig:
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
	case tgbotapi.EditMessageTextConfig:
		m.edits = append(m.edits, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
	case tgbotapi.PhotoConfig:
		if path, ok := msg.File.(tgbotapi.FilePath); ok {
			m.photos = append(m.photos, string(path))
		}
	}
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		m.deletes = append(m.deletes, del.MessageID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) texts(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s.Text)
		}
	}
	return out
}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *mockAPI) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeCamera struct {
	path string
	err  error
}

func (f *fakeCamera) Capture(context.Context) (string, error) {
	return f.path, f.err
}

// --- helpers ---

func newTestBot(t *testing.T) (*Bot, *mockAPI) {
	t.Helper()
	return newTestBotConfig(t, testConfig)
}

func newTestBotConfig(t *testing.T, cfgContent string) (*Bot, *mockAPI) {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfgStore, err := store.OpenConfig(cfgPath)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}

	watchlist, err := store.OpenWatchlist(filepath.Join(dir, "watchlist.yaml"))
	if err != nil {
		t.Fatalf("open watchlist: %v", err)
	}

	schedule, err := calendar.Parse(strings.NewReader(testCalendar), cfgStore.Config().SelectedTrashCans)
	if err != nil {
		t.Fatalf("parse calendar: %v", err)
	}

	api := &mockAPI{}
	b := &Bot{
		api:       api,
		cfg:       cfgStore.Config(),
		cfgStore:  cfgStore,
		watchlist: watchlist,
		schedule:  schedule,
		camera:    &fakeCamera{path: "/tmp/image.jpg"},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       func() time.Time { return testNow },
		pick:      func(int) int { return 0 },
	}
	if err := b.buildRoutes(); err != nil {
		t.Fatalf("build routes: %v", err)
	}
	return b, api
}

func memberReq(chatID int64, args ...string) request {
	return request{ChatID: chatID, UserID: testMember, SentAt: testNow, Args: args}
}

func command(cmd, args string, chatID, userID int64, sentAt time.Time) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}},
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: userID, FirstName: "Sam"},
		Date:     int(sentAt.Unix()),
	}
}

// --- dispatch & admission ---

func TestDispatchAdmits(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	b.handleCommand(ctx, command("hello", "", testGroupChat, testMember, testNow))

	if got := api.sentCount(); got != 1 {
		t.Fatalf("sent %d messages, want 1", got)
	}
	if !strings.Contains(api.lastText(), "Hello there!") {
		t.Errorf("unexpected reply: %q", api.lastText())
	}
}

func TestDispatchSilentDrop(t *testing.T) {
	tests := []struct {
		name string
		msg  *tgbotapi.Message
	}{
		{name: "stranger", msg: command("hello", "", testGroupChat, testStranger, testNow)},
		{name: "stale backlog message", msg: command("hello", "", testGroupChat, testMember, testNow.Add(-time.Minute))},
		{name: "unknown command", msg: command("frobnicate", "", testGroupChat, testMember, testNow)},
		{name: "talk from group chat", msg: command("talk", "hi all", testGroupChat, testMember, testNow)},
		{name: "talk without arguments", msg: command("talk", "", testMember, testMember, testNow)},
		{name: "done outside group", msg: command("done", "", testMember, testMember, testNow)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api := newTestBot(t)
			b.handleCommand(context.Background(), tt.msg)
			if got := api.sentCount(); got != 0 {
				t.Errorf("sent %d messages, want silent drop", got)
			}
		})
	}
}

// --- watchlist scenario ---

func TestWatchlistScenario(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()
	req := memberReq(testGroupChat)

	b.handleRandomFilm(ctx, req, nil)
	if got := api.lastText(); got != msgNoFilms {
		t.Fatalf("random on empty list = %q, want %q", got, msgNoFilms)
	}

	b.handleAddFilm(ctx, memberReq(testGroupChat, "Dune"), nil)
	if got := api.lastText(); !strings.Contains(got, `Added film "Dune"`) {
		t.Fatalf("add reply = %q", got)
	}

	b.handleListFilms(ctx, req, nil)
	if got := api.lastText(); got != "Dune" {
		t.Fatalf("list = %q, want exactly Dune", got)
	}

	b.handleAddFilm(ctx, memberReq(testGroupChat, "Dune"), nil)
	if got := api.lastText(); !strings.Contains(got, "already in watchlist") {
		t.Fatalf("duplicate add reply = %q", got)
	}
	if diff := cmp.Diff([]string{"Dune"}, b.watchlist.Films()); diff != "" {
		t.Fatalf("duplicate add changed the list (-want +got):\n%s", diff)
	}

	b.handleRandomFilm(ctx, req, nil)
	if got := api.lastText(); got != "Dune" {
		t.Fatalf("random = %q, want Dune", got)
	}

	b.handleRemoveFilm(ctx, memberReq(testGroupChat, "Dune"), nil)
	if got := api.lastText(); !strings.Contains(got, `Removed "Dune"`) {
		t.Fatalf("remove reply = %q", got)
	}

	b.handleListFilms(ctx, req, nil)
	if got := api.lastText(); got != msgEmptyWatchlist {
		t.Fatalf("list after remove = %q, want %q", got, msgEmptyWatchlist)
	}
}

func TestRemoveFilmAbsent(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	b.handleRemoveFilm(ctx, memberReq(testGroupChat, "Alien"), nil)
	if got := api.lastText(); !strings.Contains(got, "not in watchlist") {
		t.Errorf("reply = %q", got)
	}
}

func TestFilmUsageMessages(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	b.handleAddFilm(ctx, memberReq(testGroupChat), nil)
	if got := api.lastText(); got != msgUsageAddFilm {
		t.Errorf("add usage = %q, want %q", got, msgUsageAddFilm)
	}
	b.handleRemoveFilm(ctx, memberReq(testGroupChat), nil)
	if got := api.lastText(); got != msgUsageRmFilm {
		t.Errorf("remove usage = %q, want %q", got, msgUsageRmFilm)
	}
}

// --- trash state machine ---

func TestDailyTrashCheckDueTomorrow(t *testing.T) {
	b, api := newTestBot(t)

	b.DailyTrashCheck(context.Background())

	group := api.texts(testGroupChat)
	if len(group) != 1 {
		t.Fatalf("group got %d messages, want exactly 1: %v", len(group), group)
	}
	if !strings.Contains(group[0], "Paper") {
		t.Errorf("notification %q does not name the due can", group[0])
	}
	if !b.cfgStore.AwaitingAck() {
		t.Error("flag not set after notification")
	}
	if got := api.texts(testMaintainerChat); len(got) != 0 {
		t.Errorf("maintainer notified without reason: %v", got)
	}
}

func TestDailyTrashCheckNothingDue(t *testing.T) {
	b, api := newTestBot(t)
	// 2025-09-03: no event on the 4th.
	b.now = func() time.Time { return time.Date(2025, 9, 3, 16, 55, 0, 0, time.UTC) }

	b.DailyTrashCheck(context.Background())

	if got := api.sentCount(); got != 0 {
		t.Fatalf("sent %d messages, want none", got)
	}
	if b.cfgStore.AwaitingAck() {
		t.Error("flag set without a due collection")
	}
}

func TestDailyTrashCheckCalendarExhausted(t *testing.T) {
	b, api := newTestBot(t)
	// 2025-09-15 is the last calendar entry.
	b.now = func() time.Time { return time.Date(2025, 9, 15, 16, 55, 0, 0, time.UTC) }

	b.DailyTrashCheck(context.Background())

	maintainer := api.texts(testMaintainerChat)
	if len(maintainer) != 1 || maintainer[0] != msgCalendarEnd {
		t.Errorf("maintainer messages = %v, want [%q]", maintainer, msgCalendarEnd)
	}
	if got := api.texts(testGroupChat); len(got) != 0 {
		t.Errorf("group messages = %v, want none", got)
	}
	if b.cfgStore.AwaitingAck() {
		t.Error("flag set with nothing due tomorrow")
	}
}

func TestTrashReminder(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	b.TrashReminder(ctx)
	if got := api.sentCount(); got != 0 {
		t.Fatalf("reminder fired while idle: %d messages", got)
	}

	if err := b.cfgStore.SetAwaitingAck(true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	b.TrashReminder(ctx)

	group := api.texts(testGroupChat)
	if len(group) != 1 || !strings.Contains(group[0], msgTrashReminder) {
		t.Errorf("reminder messages = %v", group)
	}
}

func TestDoneCommand(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()
	msg := command("done", "", testGroupChat, testMember, testNow)

	// Idle: acknowledged nothing, silent no-op.
	b.handleDone(ctx, memberReq(testGroupChat), msg)
	if got := api.sentCount(); got != 0 {
		t.Fatalf("done replied while idle: %d messages", got)
	}

	if err := b.cfgStore.SetAwaitingAck(true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	b.handleDone(ctx, memberReq(testGroupChat), msg)

	if b.cfgStore.AwaitingAck() {
		t.Error("flag still set after acknowledgment")
	}
	if got := api.lastText(); !strings.Contains(got, "Thanks, Sam!") {
		t.Errorf("reply = %q", got)
	}

	// Second done is a no-op again.
	before := api.sentCount()
	b.handleDone(ctx, memberReq(testGroupChat), msg)
	if api.sentCount() != before {
		t.Error("done replied after the cycle was closed")
	}
}

func TestResetTrashFlag(t *testing.T) {
	b, _ := newTestBot(t)
	if err := b.cfgStore.SetAwaitingAck(true); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	b.ResetTrashFlag(context.Background())

	if b.cfgStore.AwaitingAck() {
		t.Error("flag survived the daily reset")
	}
}

// --- birthdays ---

func TestDailyBirthdayCheck(t *testing.T) {
	b, api := newTestBot(t)
	// Anna's birthday (15/06).
	b.now = func() time.Time { return time.Date(2025, 6, 15, 7, 0, 0, 0, time.UTC) }

	b.DailyBirthdayCheck(context.Background())

	group := api.texts(testGroupChat)
	if len(group) != 1 {
		t.Fatalf("group got %d messages, want 1: %v", len(group), group)
	}
	if !strings.Contains(group[0], "Happy Birthday, Anna!") {
		t.Errorf("greeting = %q", group[0])
	}
}

func TestDailyBirthdayCheckNoMatch(t *testing.T) {
	b, api := newTestBot(t)
	b.now = func() time.Time { return time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC) }

	b.DailyBirthdayCheck(context.Background())

	if got := api.sentCount(); got != 0 {
		t.Errorf("sent %d messages, want none", got)
	}
}

func TestDailyBirthdayCheckMultipleMatches(t *testing.T) {
	cfg := strings.Replace(testConfig,
		"birthdays:\n  Anna: 15/06/1985\n  Bob: 01/01/1990\n",
		"birthdays:\n  Anna: 15/06/1985\n  Mia: 15/06/2001\n", 1)
	b, api := newTestBotConfig(t, cfg)
	b.now = func() time.Time { return time.Date(2025, 6, 15, 7, 0, 0, 0, time.UTC) }

	b.DailyBirthdayCheck(context.Background())

	group := api.texts(testGroupChat)
	if len(group) != 2 {
		t.Fatalf("group got %d messages, want one per birthday: %v", len(group), group)
	}
	if !strings.Contains(group[0], "Anna") || !strings.Contains(group[1], "Mia") {
		t.Errorf("greetings = %v", group)
	}
}

func TestNextBirthdayCommand(t *testing.T) {
	b, api := newTestBot(t)
	// 2025-09-01: next is Bob on 01.01.
	b.handleNextBirthday(context.Background(), memberReq(testGroupChat), nil)

	got := api.lastText()
	if !strings.Contains(got, "Bob") || !strings.Contains(got, "01.01.") {
		t.Errorf("reply = %q", got)
	}
}

func TestBirthdaysCommand(t *testing.T) {
	b, api := newTestBot(t)
	b.handleBirthdays(context.Background(), memberReq(testGroupChat), nil)

	got := api.lastText()
	for _, want := range []string{"All birthdays:", "Anna  15/06/1985", "Bob  01/01/1990"} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q:\n%s", want, got)
		}
	}
}

func TestCakeCommand(t *testing.T) {
	b, api := newTestBot(t)
	b.handleCake(context.Background(), memberReq(testGroupChat), nil)

	if got := api.lastText(); !strings.Contains(got, "cake will be baked by Anna") {
		t.Errorf("reply = %q", got)
	}
}

// --- misc commands ---

func TestNextTrashCommand(t *testing.T) {
	b, api := newTestBot(t)
	b.handleNextTrash(context.Background(), memberReq(testGroupChat), nil)

	got := api.lastText()
	for _, want := range []string{"Paper", "Tuesday", "02.09."} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q: %s", want, got)
		}
	}
}

func TestNextTrashCommandExhausted(t *testing.T) {
	b, api := newTestBot(t)
	b.now = func() time.Time { return time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC) }

	b.handleNextTrash(context.Background(), memberReq(testGroupChat), nil)

	if got := api.lastText(); got != msgNoTrashEvents {
		t.Errorf("reply = %q, want %q", got, msgNoTrashEvents)
	}
}

func TestTalkRelaysAnonymously(t *testing.T) {
	b, api := newTestBot(t)

	b.handleTalk(context.Background(), memberReq(testMember, "movie", "night?"), nil)

	group := api.texts(testGroupChat)
	if diff := cmp.Diff([]string{"movie night?"}, group); diff != "" {
		t.Errorf("relay mismatch (-want +got):\n%s", diff)
	}
}

func TestIDCommand(t *testing.T) {
	b, api := newTestBot(t)
	msg := command("id", "", testGroupChat, testMember, testNow)

	b.handleID(context.Background(), memberReq(testGroupChat), msg)

	got := api.lastText()
	for _, want := range []string{fmt.Sprint(testGroupChat), fmt.Sprint(testMember), "Sam"} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q:\n%s", want, got)
		}
	}
}

func TestStartupNotice(t *testing.T) {
	b, api := newTestBot(t)
	b.StartupNotice(context.Background())

	if diff := cmp.Diff([]string{msgStartup}, api.texts(testMaintainerChat)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// --- picture ---

func TestPictureSuccess(t *testing.T) {
	b, api := newTestBot(t)
	b.camera = &fakeCamera{path: "/tmp/2025_09_01/image_18_00_00.jpg"}

	b.handlePicture(context.Background(), memberReq(testMember), nil)

	if len(api.sent) != 1 || api.sent[0].Text != msgCapturing {
		t.Fatalf("placeholder not sent: %v", api.sent)
	}
	if len(api.deletes) != 1 {
		t.Fatalf("placeholder not deleted: %v", api.deletes)
	}
	if diff := cmp.Diff([]string{"/tmp/2025_09_01/image_18_00_00.jpg"}, api.photos); diff != "" {
		t.Errorf("photo mismatch (-want +got):\n%s", diff)
	}
}

func TestPictureFailureEditsPlaceholder(t *testing.T) {
	b, api := newTestBot(t)
	b.camera = &fakeCamera{err: errors.New("host unreachable")}

	b.handlePicture(context.Background(), memberReq(testMember), nil)

	if len(api.deletes) != 0 {
		t.Error("placeholder deleted despite failure")
	}
	if len(api.photos) != 0 {
		t.Error("photo sent despite failure")
	}
	if len(api.edits) != 1 {
		t.Fatalf("placeholder not edited: %v", api.edits)
	}
	if !strings.Contains(api.edits[0].Text, "Error capturing image") ||
		!strings.Contains(api.edits[0].Text, "host unreachable") {
		t.Errorf("edit text = %q", api.edits[0].Text)
	}
}

func TestWithTypingFiresAction(t *testing.T) {
	b, api := newTestBot(t)

	called := false
	wrapped := b.withTyping(func(context.Context, request, *tgbotapi.Message) {
		called = true
	})
	wrapped(context.Background(), memberReq(testMember), nil)

	if !called {
		t.Fatal("wrapped handler not invoked")
	}
	if len(api.requests) != 1 {
		t.Fatalf("chat action not requested: %v", api.requests)
	}
	if _, ok := api.requests[0].(tgbotapi.ChatActionConfig); !ok {
		t.Errorf("request type = %T, want ChatActionConfig", api.requests[0])
	}
}
