package sidebar

import (
	"sort"
	"time"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

// gather collects the candidate channels for a team's categories: the
// team's own channels plus every direct/group channel (those carry no
// team and are considered for all teams). Output is ordered by ID so a
// recompute over unchanged buckets is reproducible.
func gather(team, direct store.Bucket) []*skiff.Channel {
	out := make([]*skiff.Channel, 0, len(team)+len(direct))
	for _, c := range team {
		out = append(out, c)
	}
	for _, c := range direct {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// favorite reports whether the channel carries a truthy
// favorite_channel preference.
func favorite(prefs map[string]skiff.Preference, channelID string) bool {
	p, ok := prefs[skiff.PreferenceKey(skiff.PreferenceFavoriteChannel, channelID)]
	return ok && p.Value != "" && p.Value != "false"
}

// filterFavorites keeps only favorited channels for a favorites
// category and drops favorited channels from every other category, so a
// favorite never shows up twice. Nothing removed returns the input
// slice untouched.
func filterFavorites(in []*skiff.Channel, prefs map[string]skiff.Preference, favoritesCategory bool) []*skiff.Channel {
	out := in[:0:0]
	for _, c := range in {
		if favorite(prefs, c.ID) == favoritesCategory {
			out = append(out, c)
		}
	}
	if len(out) == len(in) {
		return in
	}
	return out
}

// filterByType narrows a category to the channel types it may hold.
// The channels category holds both open and private team channels;
// favorites and custom categories carry any type.
func filterByType(in []*skiff.Channel, categoryType skiff.CategoryType) []*skiff.Channel {
	var keep func(*skiff.Channel) bool
	switch categoryType {
	case skiff.CategoryChannels:
		keep = func(c *skiff.Channel) bool { return c.Type == skiff.ChannelOpen || c.Type == skiff.ChannelPrivate }
	case skiff.CategoryDirectMessages:
		keep = func(c *skiff.Channel) bool { return c.IsDirectOrGroup() }
	default:
		return in
	}

	out := in[:0:0]
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	if len(out) == len(in) {
		return in
	}
	return out
}

func prefTime(prefs map[string]skiff.Preference, category, name string) int64 {
	p, ok := prefs[skiff.PreferenceKey(category, name)]
	if !ok {
		return 0
	}
	return parseMillis(p.Value)
}

func parseMillis(v string) int64 {
	var out int64
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0
		}
		out = out*10 + int64(r-'0')
	}
	return out
}

// autoClosed decides whether one direct/group channel is hidden by the
// inactivity heuristic. cutoff is now minus the retention window, in
// epoch milliseconds.
func (p *Pipeline) autoClosed(s store.State, c *skiff.Channel, cutoff int64) bool {
	if c.ID == s.Entities.CurrentChannelID {
		return false
	}

	if m := s.Entities.Members[c.ID]; m != nil && c.TotalMsgCount > m.MsgCount {
		// unread messages keep the channel pinned open
		return false
	}

	prefs := s.Entities.Preferences
	if prefTime(prefs, skiff.PreferenceChannelViewTime, c.ID) >= cutoff {
		return false
	}
	openTime := prefTime(prefs, skiff.PreferenceChannelOpenTime, c.ID)

	// a counterpart deactivated after the last open closes the DM even
	// when the auto-close settings are off
	if c.Type == skiff.ChannelDirect {
		other := s.Entities.Users[c.OtherUserID(s.Entities.CurrentUserID)]
		if other != nil && other.Deactivated() {
			return other.DeleteAt > openTime
		}
	}

	if !s.Entities.CloseUnusedDirectMessages {
		return false
	}
	if pref, ok := prefs[skiff.PreferenceKey(skiff.PreferenceSidebarSettings, skiff.PreferenceNameCloseUnused)]; ok &&
		pref.Value != skiff.PreferenceCloseAfterWeek {
		return false
	}

	if openTime >= cutoff {
		return false
	}
	return lastActivity(s, c) < cutoff
}

// filterAutoClosed hides inactive direct/group channels from the
// direct-messages category. Other category types pass through, as does
// an input where nothing qualifies.
func (p *Pipeline) filterAutoClosed(in []*skiff.Channel, s store.State, categoryType skiff.CategoryType) []*skiff.Channel {
	if categoryType != skiff.CategoryDirectMessages {
		return in
	}

	cutoff := p.now().Add(-p.autoCloseAfter).UnixNano() / int64(time.Millisecond)

	out := in[:0:0]
	for _, c := range in {
		if c.IsDirectOrGroup() && p.autoClosed(s, c, cutoff) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == len(in) {
		return in
	}
	return out
}

// filterManuallyClosed hides direct channels whose counterpart the user
// closed (direct_channel_show) and group channels the user closed
// (group_channel_show). A missing preference counts as closed.
func filterManuallyClosed(in []*skiff.Channel, s store.State) []*skiff.Channel {
	prefs := s.Entities.Preferences

	out := in[:0:0]
	for _, c := range in {
		switch c.Type {
		case skiff.ChannelDirect:
			p, ok := prefs[skiff.PreferenceKey(skiff.PreferenceDirectChannelShow, c.OtherUserID(s.Entities.CurrentUserID))]
			if !ok || p.Value == "false" {
				continue
			}
		case skiff.ChannelGroup:
			p, ok := prefs[skiff.PreferenceKey(skiff.PreferenceGroupChannelShow, c.ID)]
			if !ok || p.Value == "false" {
				continue
			}
		}
		out = append(out, c)
	}
	if len(out) == len(in) {
		return in
	}
	return out
}
