package sidebar

import (
	"sort"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

// sortKey returns the display name a channel is ordered under. Direct
// channels sort under the counterpart's name and group channels under
// the joined names of the other members; a missing profile yields an
// empty sentinel key rather than an error so the list is returned
// complete before secondary data loads.
func (p *Pipeline) sortKey(s store.State, c *skiff.Channel) string {
	switch c.Type {
	case skiff.ChannelDirect:
		other := s.Entities.Users[c.OtherUserID(s.Entities.CurrentUserID)]
		if other == nil {
			return ""
		}
		return other.SortName()
	case skiff.ChannelGroup:
		var names []string
		for _, id := range s.Entities.UserIDsByChannel[c.ID] {
			if id == s.Entities.CurrentUserID {
				continue
			}
			if u := s.Entities.Users[id]; u != nil {
				names = append(names, u.SortName())
			}
		}
		if len(names) == 0 {
			return ""
		}
		sort.SliceStable(names, func(i, j int) bool {
			return p.coll.CompareString(names[i], names[j]) < 0
		})
		joined := names[0]
		for _, n := range names[1:] {
			joined += ", " + n
		}
		return joined
	default:
		return c.DisplayName
	}
}

// sortChannels orders the filtered list according to the category's
// sorting mode. Always returns a fresh slice; the input is never
// mutated.
func (p *Pipeline) sortChannels(s store.State, category *skiff.ChannelCategory, in []*skiff.Channel) []*skiff.Channel {
	out := make([]*skiff.Channel, len(in))
	copy(out, in)

	switch category.Sorting {
	case skiff.SortManual:
		position := make(map[string]int, len(category.ChannelIDs))
		for i, id := range category.ChannelIDs {
			position[id] = i
		}
		sort.SliceStable(out, func(i, j int) bool {
			pi, iOK := position[out[i].ID]
			pj, jOK := position[out[j].ID]
			if iOK != jOK {
				// channels the user never placed go last
				return iOK
			}
			if !iOK {
				return p.byName(s, out[i], out[j])
			}
			return pi < pj
		})
	case skiff.SortRecent:
		sort.SliceStable(out, func(i, j int) bool {
			ai := lastActivity(s, out[i])
			aj := lastActivity(s, out[j])
			if ai != aj {
				return ai > aj
			}
			return p.byName(s, out[i], out[j])
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return p.byName(s, out[i], out[j])
		})
	}
	return out
}

// byName compares two channels with the locale collator, falling back
// to IDs so ordering stays deterministic for equal names.
func (p *Pipeline) byName(s store.State, a, b *skiff.Channel) bool {
	if r := p.coll.CompareString(p.sortKey(s, a), p.sortKey(s, b)); r != 0 {
		return r < 0
	}
	return a.ID < b.ID
}

// lastActivity is the freshest timestamp known for a channel: its own
// last_post_at or the newest loaded post, whichever is later.
func lastActivity(s store.State, c *skiff.Channel) int64 {
	at := c.LastPostAt
	if loaded := s.Entities.LastPostAt[c.ID]; loaded > at {
		at = loaded
	}
	return at
}
