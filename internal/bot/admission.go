package bot

import (
	"fmt"
	"time"
)

// maxMessageAge rejects commands queued while the bot was offline, so a
// restart does not replay the backlog.
const maxMessageAge = 5 * time.Second

// constraints are the named admission requirements of a command. They are
// fixed per route and validated once at startup.
type constraints struct {
	maintainerOnly  bool
	groupOnly       bool
	membersOnly     bool
	privateChatOnly bool
	requireArgs     bool
}

// validate rejects inconsistent constraint combinations. Requiring both
// the group chat and a private chat can never admit anything, so it is a
// configuration error rather than a silent deny-all.
func (c constraints) validate() error {
	if c.groupOnly && c.privateChatOnly {
		return fmt.Errorf("groupOnly and privateChatOnly are mutually exclusive")
	}
	return nil
}

// request is the authorization context derived from an incoming message.
// It is never persisted.
type request struct {
	ChatID int64
	UserID int64
	SentAt time.Time
	Args   []string
}

// gate holds the environment the admission check runs against.
type gate struct {
	Now            func() time.Time
	MaintainerChat int64
	GroupChat      int64
	IsMember       func(userID int64) bool
}

// admit evaluates the constraints in fixed order, short-circuiting on the
// first failure. A rejected message is dropped with no reply.
func (g gate) admit(c constraints, req request) bool {
	if g.Now().Sub(req.SentAt) > maxMessageAge {
		return false
	}
	if c.maintainerOnly && req.ChatID != g.MaintainerChat {
		return false
	}
	if c.groupOnly && req.ChatID != g.GroupChat {
		return false
	}
	if c.membersOnly && !g.IsMember(req.UserID) {
		return false
	}
	// Group chats have negative IDs, private chats do not.
	if c.privateChatOnly && req.ChatID < 0 {
		return false
	}
	if c.requireArgs && len(req.Args) == 0 {
		return false
	}
	return true
}
