package store

import (
	"github.com/skiffchat/skiff"
)

// Reduce applies one event to the state and returns the next state.
// Pure: the input state is never mutated, and events that change
// nothing return the input unchanged so downstream memoization holds.
// Unknown event types are a no-op.
func Reduce(s State, ev skiff.Event) State {
	switch ev := ev.(type) {
	case skiff.CurrentUserSet:
		s.Entities.CurrentUserID = ev.UserID
		return s
	case skiff.CurrentChannelSet:
		s.Entities.CurrentChannelID = ev.ChannelID
		return s
	case skiff.ServerSettingsReceived:
		s.Entities.CloseUnusedDirectMessages = ev.CloseUnusedDirectMessages
		return s
	case skiff.UsersReceived:
		return reduceUsersReceived(s, ev)
	case skiff.ChannelsReceived:
		return reduceChannelsReceived(s, ev)
	case skiff.ChannelDeleted:
		return reduceChannelGone(s, ev.ChannelID)
	case skiff.ChannelLeft:
		return reduceChannelGone(s, ev.ChannelID)
	case skiff.ChannelMembersReceived:
		return reduceMembersReceived(s, ev)
	case skiff.UserIDsInChannelReceived:
		ids := cloneUserIDs(s.Entities.UserIDsByChannel)
		ids[ev.ChannelID] = skiff.SortedUserIDs(ev.UserIDs)
		s.Entities.UserIDsByChannel = ids
		return s
	case skiff.PostReceived:
		if ev.CreateAt <= s.Entities.LastPostAt[ev.ChannelID] {
			return s
		}
		last := make(map[string]int64, len(s.Entities.LastPostAt)+1)
		for id, at := range s.Entities.LastPostAt {
			last[id] = at
		}
		last[ev.ChannelID] = ev.CreateAt
		s.Entities.LastPostAt = last
		return s
	case skiff.PreferencesChanged:
		return reducePreferencesChanged(s, ev)
	case skiff.PreferencesDeleted:
		return reducePreferencesDeleted(s, ev)
	case skiff.TeamMembershipsReceived:
		return reduceTeamMemberships(s, ev)
	case skiff.TeamLeft:
		return reduceTeamLeft(s, ev)
	case skiff.CategoryReceived:
		return reduceCategoriesReceived(s, []*skiff.ChannelCategory{ev.Category})
	case skiff.CategoriesReceived:
		return reduceCategoriesReceived(s, ev.Categories)
	case skiff.CategoryOrderReceived:
		orders := cloneOrders(s.Categories.OrderByTeam)
		orders[ev.TeamID] = append([]string(nil), ev.Order...)
		s.Categories.OrderByTeam = orders
		return s
	case skiff.CategoryDeleted:
		return reduceCategoryDeleted(s, ev)
	case skiff.CategorySortingChanged:
		return reduceSortingChanged(s, ev)
	case skiff.TeamCategoriesRestored:
		return reduceTeamCategoriesRestored(s, ev)
	case skiff.LoggedOut:
		return NewState()
	default:
		return s
	}
}

func reduceUsersReceived(s State, ev skiff.UsersReceived) State {
	users := s.Entities.Users
	copied := false
	for _, u := range ev.Users {
		if existing, ok := users[u.ID]; ok && *existing == *u {
			continue
		}
		if !copied {
			next := make(map[string]*skiff.User, len(users)+len(ev.Users))
			for id, eu := range users {
				next[id] = eu
			}
			users = next
			copied = true
		}
		users[u.ID] = u
	}
	if !copied {
		return s
	}
	s.Entities.Users = users
	return s
}

func reduceChannelsReceived(s State, ev skiff.ChannelsReceived) State {
	byTeam := s.Entities.ChannelsByTeam
	copiedTop := false
	copiedBuckets := map[string]bool{}

	for _, c := range ev.Channels {
		bucket := byTeam[c.TeamID]
		if existing, ok := bucket[c.ID]; ok && *existing == *c {
			continue
		}
		if !copiedTop {
			byTeam = cloneBuckets(byTeam)
			copiedTop = true
		}
		if !copiedBuckets[c.TeamID] {
			byTeam[c.TeamID] = cloneBucket(byTeam[c.TeamID])
			copiedBuckets[c.TeamID] = true
		}
		byTeam[c.TeamID][c.ID] = c
	}
	if !copiedTop {
		return s
	}
	s.Entities.ChannelsByTeam = byTeam
	return s
}

// reduceChannelGone handles both archive and leave: the channel entity,
// the membership and the last-post watermark are dropped, and the ID is
// scrubbed from any category that listed it. Identical input comes back
// when nothing referenced the channel.
func reduceChannelGone(s State, channelID string) State {
	if c := s.Channel(channelID); c != nil {
		byTeam := cloneBuckets(s.Entities.ChannelsByTeam)
		bucket := cloneBucket(byTeam[c.TeamID])
		delete(bucket, channelID)
		byTeam[c.TeamID] = bucket
		s.Entities.ChannelsByTeam = byTeam
	}

	if _, ok := s.Entities.Members[channelID]; ok {
		members := make(map[string]*skiff.ChannelMember, len(s.Entities.Members))
		for id, m := range s.Entities.Members {
			if id != channelID {
				members[id] = m
			}
		}
		s.Entities.Members = members
	}

	if _, ok := s.Entities.LastPostAt[channelID]; ok {
		last := make(map[string]int64, len(s.Entities.LastPostAt))
		for id, at := range s.Entities.LastPostAt {
			if id != channelID {
				last[id] = at
			}
		}
		s.Entities.LastPostAt = last
	}

	return removeChannelFromCategories(s, channelID)
}

// removeChannelFromCategories scrubs a channel ID from every category's
// list. No category listing the channel means no allocation: the same
// state comes back untouched.
func removeChannelFromCategories(s State, channelID string) State {
	var changed map[string]*skiff.ChannelCategory
	for id, c := range s.Categories.ByID {
		if !c.HasChannel(channelID) {
			continue
		}
		if changed == nil {
			changed = cloneCategories(s.Categories.ByID)
		}
		changed[id] = withoutChannel(c, channelID)
	}
	if changed == nil {
		return s
	}
	s.Categories.ByID = changed
	return s
}

func withoutChannel(c *skiff.ChannelCategory, channelID string) *skiff.ChannelCategory {
	cp := *c
	cp.ChannelIDs = make([]string, 0, len(c.ChannelIDs))
	for _, id := range c.ChannelIDs {
		if id != channelID {
			cp.ChannelIDs = append(cp.ChannelIDs, id)
		}
	}
	return &cp
}

func reduceMembersReceived(s State, ev skiff.ChannelMembersReceived) State {
	members := make(map[string]*skiff.ChannelMember, len(s.Entities.Members)+len(ev.Members))
	for id, m := range s.Entities.Members {
		members[id] = m
	}
	for _, m := range ev.Members {
		members[m.ChannelID] = m
	}
	s.Entities.Members = members
	return s
}

func reducePreferencesChanged(s State, ev skiff.PreferencesChanged) State {
	if len(ev.Preferences) == 0 {
		return s
	}
	prefs := clonePreferences(s.Entities.Preferences)
	for _, p := range ev.Preferences {
		prefs[p.Key()] = p
	}
	s.Entities.Preferences = prefs
	return s
}

func reducePreferencesDeleted(s State, ev skiff.PreferencesDeleted) State {
	var prefs map[string]skiff.Preference
	for _, p := range ev.Preferences {
		if _, ok := s.Entities.Preferences[p.Key()]; !ok {
			continue
		}
		if prefs == nil {
			prefs = clonePreferences(s.Entities.Preferences)
		}
		delete(prefs, p.Key())
	}
	if prefs == nil {
		return s
	}
	s.Entities.Preferences = prefs
	return s
}

// reduceTeamMemberships lazily synthesizes the three default categories
// the first time a team membership is observed. Idempotent: an existing
// category is never overwritten and its order entry is never duplicated.
func reduceTeamMemberships(s State, ev skiff.TeamMembershipsReceived) State {
	byID := s.Categories.ByID
	orders := s.Categories.OrderByTeam
	copied := false

	for _, teamID := range ev.TeamIDs {
		var created []string
		for _, t := range []skiff.CategoryType{skiff.CategoryFavorites, skiff.CategoryChannels, skiff.CategoryDirectMessages} {
			id := skiff.DefaultCategoryID(teamID, t)
			if _, ok := byID[id]; ok {
				continue
			}
			if !copied {
				byID = cloneCategories(byID)
				orders = cloneOrders(orders)
				copied = true
			}
			byID[id] = defaultCategory(teamID, t)
			created = append(created, id)
		}
		if len(created) > 0 {
			orders[teamID] = append(created, orders[teamID]...)
		}
	}
	if !copied {
		return s
	}
	s.Categories.ByID = byID
	s.Categories.OrderByTeam = orders
	return s
}

func defaultCategory(teamID string, t skiff.CategoryType) *skiff.ChannelCategory {
	c := &skiff.ChannelCategory{
		ID:         skiff.DefaultCategoryID(teamID, t),
		TeamID:     teamID,
		Type:       t,
		Sorting:    skiff.SortDefault,
		ChannelIDs: []string{},
	}
	switch t {
	case skiff.CategoryFavorites:
		c.DisplayName = "Favorites"
	case skiff.CategoryChannels:
		c.DisplayName = "Channels"
	case skiff.CategoryDirectMessages:
		c.DisplayName = "Direct Messages"
		// DM lists read best alphabetized until the user picks otherwise
		c.Sorting = skiff.SortAlphabetical
	}
	return c
}

// reduceCategoriesReceived shallow-merges incoming records over any
// existing ones. A zero-valued field on the incoming record (a rename
// patch pushed over the websocket carries no channel_ids, sorting or
// type) keeps whatever the existing record held.
func reduceCategoriesReceived(s State, categories []*skiff.ChannelCategory) State {
	if len(categories) == 0 {
		return s
	}
	byID := cloneCategories(s.Categories.ByID)
	for _, c := range categories {
		merged := c.Clone()
		existing, ok := byID[c.ID]
		if !ok {
			if c.ChannelIDs == nil {
				merged.ChannelIDs = []string{}
			}
			byID[c.ID] = merged
			continue
		}
		if merged.TeamID == "" {
			merged.TeamID = existing.TeamID
		}
		if merged.Type == "" {
			merged.Type = existing.Type
		}
		if merged.DisplayName == "" {
			merged.DisplayName = existing.DisplayName
		}
		if merged.Sorting == skiff.SortDefault {
			merged.Sorting = existing.Sorting
		}
		if c.ChannelIDs == nil {
			merged.ChannelIDs = existing.ChannelIDs
		}
		byID[c.ID] = merged
	}
	s.Categories.ByID = byID
	return s
}

func reduceCategoryDeleted(s State, ev skiff.CategoryDeleted) State {
	if _, ok := s.Categories.ByID[ev.CategoryID]; !ok {
		return s
	}

	byID := cloneCategories(s.Categories.ByID)
	delete(byID, ev.CategoryID)
	s.Categories.ByID = byID

	// only one team's order should list it, but scrub all of them
	orders := cloneOrders(s.Categories.OrderByTeam)
	for teamID, order := range orders {
		for i, id := range order {
			if id == ev.CategoryID {
				next := append([]string(nil), order[:i]...)
				orders[teamID] = append(next, order[i+1:]...)
				break
			}
		}
	}
	s.Categories.OrderByTeam = orders
	return s
}

func reduceSortingChanged(s State, ev skiff.CategorySortingChanged) State {
	c, ok := s.Categories.ByID[ev.CategoryID]
	if !ok || c.Sorting == ev.Sorting {
		return s
	}
	byID := cloneCategories(s.Categories.ByID)
	cp := *c
	cp.Sorting = ev.Sorting
	byID[ev.CategoryID] = &cp
	s.Categories.ByID = byID
	return s
}

func reduceTeamLeft(s State, ev skiff.TeamLeft) State {
	changed := false
	byID := s.Categories.ByID
	for id, c := range s.Categories.ByID {
		if c.TeamID != ev.TeamID {
			continue
		}
		if !changed {
			byID = cloneCategories(byID)
			changed = true
		}
		delete(byID, id)
	}
	if _, ok := s.Categories.OrderByTeam[ev.TeamID]; ok {
		orders := cloneOrders(s.Categories.OrderByTeam)
		delete(orders, ev.TeamID)
		s.Categories.OrderByTeam = orders
		changed = true
	}
	if _, ok := s.Entities.ChannelsByTeam[ev.TeamID]; ok {
		byTeam := cloneBuckets(s.Entities.ChannelsByTeam)
		delete(byTeam, ev.TeamID)
		s.Entities.ChannelsByTeam = byTeam
		changed = true
	}
	if !changed {
		return s
	}
	s.Categories.ByID = byID
	return s
}

// reduceTeamCategoriesRestored swaps one team's categories and order
// for a snapshot, dropping anything (including optimistic temporaries)
// the snapshot doesn't know about.
func reduceTeamCategoriesRestored(s State, ev skiff.TeamCategoriesRestored) State {
	byID := cloneCategories(s.Categories.ByID)
	for id, c := range byID {
		if c.TeamID == ev.TeamID {
			delete(byID, id)
		}
	}
	for _, c := range ev.Categories {
		byID[c.ID] = c.Clone()
	}
	s.Categories.ByID = byID

	orders := cloneOrders(s.Categories.OrderByTeam)
	orders[ev.TeamID] = append([]string(nil), ev.Order...)
	s.Categories.OrderByTeam = orders
	return s
}

func cloneBuckets(m map[string]Bucket) map[string]Bucket {
	out := make(map[string]Bucket, len(m)+1)
	for id, b := range m {
		out[id] = b
	}
	return out
}

func cloneUserIDs(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m)+1)
	for id, ids := range m {
		out[id] = ids
	}
	return out
}

func clonePreferences(m map[string]skiff.Preference) map[string]skiff.Preference {
	out := make(map[string]skiff.Preference, len(m)+1)
	for k, p := range m {
		out[k] = p
	}
	return out
}
