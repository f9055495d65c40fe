package skiff

import (
	"sort"
	"strings"
)

// ChannelType discriminates the four kinds of channel the server knows about.
type ChannelType string

// channel type codes, matching the server's wire values
const (
	ChannelOpen    ChannelType = "O"
	ChannelPrivate ChannelType = "P"
	ChannelDirect  ChannelType = "D"
	ChannelGroup   ChannelType = "G"
)

// Channel is one chat channel as the server serializes it. Direct and
// group channels are team-agnostic and carry an empty TeamID.
type Channel struct {
	ID            string      `json:"id"`
	TeamID        string      `json:"team_id"`
	Type          ChannelType `json:"type"`
	DisplayName   string      `json:"display_name"`
	Name          string      `json:"name"`
	TotalMsgCount int64       `json:"total_msg_count"`
	LastPostAt    int64       `json:"last_post_at"`
	DeleteAt      int64       `json:"delete_at"`
}

// IsDirectOrGroup reports whether the channel is a 1:1 or multi-user
// private conversation rather than a team channel.
func (c *Channel) IsDirectOrGroup() bool {
	return c.Type == ChannelDirect || c.Type == ChannelGroup
}

// DirectChannelName builds the canonical name for a direct channel
// between two users. The two IDs are joined in sorted order so both
// participants compute the same name.
func DirectChannelName(userID, otherID string) string {
	if userID > otherID {
		userID, otherID = otherID, userID
	}
	return userID + "__" + otherID
}

// OtherUserID decodes the counterpart's user ID from a direct channel's
// name. Returns the empty string if the channel is not a direct channel
// or the given user is not a participant.
func (c *Channel) OtherUserID(userID string) string {
	if c.Type != ChannelDirect {
		return ""
	}

	ids := strings.SplitN(c.Name, "__", 2)
	if len(ids) != 2 {
		return ""
	}

	switch userID {
	case ids[0]:
		return ids[1]
	case ids[1]:
		return ids[0]
	}
	return ""
}

// ChannelMember records the current user's read state in one channel.
// Unread messages exist when the channel's TotalMsgCount has moved past
// the member's MsgCount watermark.
type ChannelMember struct {
	ChannelID    string `json:"channel_id"`
	UserID       string `json:"user_id"`
	MsgCount     int64  `json:"msg_count"`
	LastViewedAt int64  `json:"last_viewed_at"`
}

// SortedUserIDs returns a sorted copy for deterministic group-channel keys.
func SortedUserIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
