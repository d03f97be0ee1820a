// Package config handles the YAML configuration document: loading,
// validation, and the typed time-of-day values used by the scheduler.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"butler_bot/internal/model"
)

// DefaultTimezone is used when the config does not name one.
const DefaultTimezone = "Europe/Amsterdam"

// Config is the persisted configuration document. It is loaded once at
// startup and written back after every mutation of WaitingForDisable.
type Config struct {
	Token             string            `yaml:"token"`
	MaintainerChatID  int64             `yaml:"maintainer_chat_id"`
	GroupChatID       int64             `yaml:"group_chat_id"`
	MemberIDs         []int64           `yaml:"member_ids"`
	Birthdays         model.Birthdays   `yaml:"birthdays"`
	TrashCans         map[string]string `yaml:"ics_trash_cans"`
	SelectedTrashCans []string          `yaml:"selected_trash_cans"`
	TrashMsgTime      ClockTime         `yaml:"trash_msg_time"`
	SnoozeTime        ClockTime         `yaml:"snooze_time"`
	BirthdayMsgTime   ClockTime         `yaml:"birthday_msg_time"`
	WaitingForDisable bool              `yaml:"waiting_for_disable"`
	Timezone          string            `yaml:"timezone,omitempty"`
	CameraUser        string            `yaml:"camera_user,omitempty"`
	CameraIP          string            `yaml:"camera_ip,omitempty"`
	CameraRemotePath  string            `yaml:"camera_remote_path,omitempty"`
	CameraLocalPath   string            `yaml:"camera_local_path,omitempty"`

	loc *time.Location
}

// Load reads and validates the configuration document. A missing file
// yields an empty document, which then fails validation loudly; a
// malformed file is an error so the process never runs on corrupted state.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to validation, which reports what is missing
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks all required fields and resolves the timezone.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.MaintainerChatID == 0 {
		return fmt.Errorf("maintainer_chat_id is required")
	}
	if c.GroupChatID == 0 {
		return fmt.Errorf("group_chat_id is required")
	}
	for _, code := range c.SelectedTrashCans {
		if _, ok := c.TrashCans[code]; !ok {
			return fmt.Errorf("selected trash can %q has no entry in ics_trash_cans", code)
		}
	}

	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", tz, err)
	}
	c.loc = loc
	return nil
}

// Location returns the resolved local timezone. Valid after Validate.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// IsMember checks whether a user ID is in the member set.
func (c *Config) IsMember(userID int64) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CanName resolves a category code to its display name, falling back to
// the code itself for unknown categories.
func (c *Config) CanName(code string) string {
	if name, ok := c.TrashCans[code]; ok {
		return name
	}
	return code
}

// ClockTime is a time of day serialized as "HH:MM:SS". The snooze interval
// reuses the same wire format and is read through Duration.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseClockTime parses "HH:MM:SS".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Duration returns the offset from midnight.
func (t ClockTime) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// Add shifts the time of day by d, wrapping around midnight.
func (t ClockTime) Add(d time.Duration) ClockTime {
	total := (t.Duration() + d) % (24 * time.Hour)
	if total < 0 {
		total += 24 * time.Hour
	}
	return ClockTime{
		Hour:   int(total / time.Hour),
		Minute: int(total % time.Hour / time.Minute),
		Second: int(total % time.Minute / time.Second),
	}
}

// UnmarshalYAML decodes a "HH:MM:SS" scalar.
func (t *ClockTime) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseClockTime(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes back to the "HH:MM:SS" scalar form.
func (t ClockTime) MarshalYAML() (any, error) {
	return t.String(), nil
}
