package store_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

func mapRef(m interface{}) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func membershipFor(teams ...string) skiff.TeamMembershipsReceived {
	return skiff.TeamMembershipsReceived{TeamIDs: teams}
}

func TestTeamMembershipsCreateDefaults(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))

	require.Len(t, s.Categories.ByID, 3)
	require.Equal(t, []string{
		"team1-favorites",
		"team1-channels",
		"team1-direct_messages",
	}, s.Categories.OrderByTeam["team1"])

	fav := s.Categories.ByID["team1-favorites"]
	require.NotNil(t, fav)
	assert.Equal(t, skiff.CategoryFavorites, fav.Type)
	assert.Equal(t, skiff.SortDefault, fav.Sorting)
	assert.Empty(t, fav.ChannelIDs)

	dm := s.Categories.ByID["team1-direct_messages"]
	require.NotNil(t, dm)
	assert.Equal(t, skiff.SortAlphabetical, dm.Sorting)

	assert.NoError(t, store.Validate(s))
}

func TestTeamMembershipsIdempotent(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))

	// the user filled a default category in the meantime
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID:         "team1-channels",
		TeamID:     "team1",
		Type:       skiff.CategoryChannels,
		ChannelIDs: []string{"channel1"},
	}})

	again := store.Reduce(s, membershipFor("team1"))

	assert.Equal(t, mapRef(s.Categories.ByID), mapRef(again.Categories.ByID))
	assert.Equal(t, []string{"channel1"}, again.Categories.ByID["team1-channels"].ChannelIDs)
	assert.Len(t, again.Categories.OrderByTeam["team1"], 3)
}

func TestCategoriesReceivedMerges(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))
	s = store.Reduce(s, skiff.CategoriesReceived{Categories: []*skiff.ChannelCategory{
		{ID: "team1-channels", TeamID: "team1", Type: skiff.CategoryChannels, ChannelIDs: []string{"channel1", "channel2"}},
	}})

	// a rename patch without channel_ids keeps the existing list
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID:          "team1-channels",
		TeamID:      "team1",
		Type:        skiff.CategoryChannels,
		DisplayName: "Browsing",
	}})

	c := s.Categories.ByID["team1-channels"]
	assert.Equal(t, "Browsing", c.DisplayName)
	assert.Equal(t, []string{"channel1", "channel2"}, c.ChannelIDs)
}

func TestCategoryPatchKeepsUnsetFields(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID:          "custom1",
		TeamID:      "team1",
		Type:        skiff.CategoryCustom,
		DisplayName: "Work",
		Sorting:     skiff.SortManual,
		ChannelIDs:  []string{"channel1"},
	}})

	// a bare rename patch must not zero out what it doesn't carry
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID:          "custom1",
		DisplayName: "Renamed",
	}})

	c := s.Categories.ByID["custom1"]
	assert.Equal(t, "Renamed", c.DisplayName)
	assert.Equal(t, "team1", c.TeamID)
	assert.Equal(t, skiff.CategoryCustom, c.Type)
	assert.Equal(t, skiff.SortManual, c.Sorting)
	assert.Equal(t, []string{"channel1"}, c.ChannelIDs)
}

func TestCategoryOrderReceivedReplacesWholesale(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))

	order := []string{"team1-direct_messages", "team1-favorites", "team1-channels"}
	s = store.Reduce(s, skiff.CategoryOrderReceived{TeamID: "team1", Order: order})

	assert.Equal(t, order, s.Categories.OrderByTeam["team1"])
	assert.NoError(t, store.Validate(s))
}

func TestCategoryDeletedScrubsOrder(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID: "custom1", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{},
	}})
	s = store.Reduce(s, skiff.CategoryOrderReceived{
		TeamID: "team1",
		Order:  []string{"custom1", "team1-favorites", "team1-channels", "team1-direct_messages"},
	})

	s = store.Reduce(s, skiff.CategoryDeleted{CategoryID: "custom1"})

	assert.Nil(t, s.Category("custom1"))
	assert.Equal(t, []string{"team1-favorites", "team1-channels", "team1-direct_messages"}, s.Categories.OrderByTeam["team1"])
	assert.NoError(t, store.Validate(s))

	// deleting an already-removed category is a silent no-op
	again := store.Reduce(s, skiff.CategoryDeleted{CategoryID: "custom1"})
	assert.Equal(t, mapRef(s.Categories.ByID), mapRef(again.Categories.ByID))
}

func TestChannelLeftScrubsCategories(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))
	s = store.Reduce(s, skiff.CategoriesReceived{Categories: []*skiff.ChannelCategory{
		{ID: "team1-channels", TeamID: "team1", Type: skiff.CategoryChannels, ChannelIDs: []string{"channel1", "channel2"}},
	}})

	s = store.Reduce(s, skiff.ChannelLeft{ChannelID: "channel1"})
	assert.Equal(t, []string{"channel2"}, s.Categories.ByID["team1-channels"].ChannelIDs)

	// nothing referencing the channel means the identical state back
	again := store.Reduce(s, skiff.ChannelLeft{ChannelID: "channel1"})
	assert.Equal(t, mapRef(s.Categories.ByID), mapRef(again.Categories.ByID))
	assert.Equal(t, mapRef(s.Entities.ChannelsByTeam), mapRef(again.Entities.ChannelsByTeam))
}

func TestChannelLeftDropsEntities(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.ChannelsReceived{Channels: []*skiff.Channel{
		{ID: "channel1", TeamID: "team1", Type: skiff.ChannelOpen},
	}})
	s = store.Reduce(s, skiff.ChannelMembersReceived{Members: []*skiff.ChannelMember{
		{ChannelID: "channel1", UserID: "me"},
	}})

	s = store.Reduce(s, skiff.ChannelLeft{ChannelID: "channel1"})

	assert.Nil(t, s.Channel("channel1"))
	assert.Nil(t, s.Entities.Members["channel1"])
}

func TestTeamLeftPurges(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1", "team2"))
	s = store.Reduce(s, skiff.ChannelsReceived{Channels: []*skiff.Channel{
		{ID: "channel1", TeamID: "team1", Type: skiff.ChannelOpen},
	}})

	s = store.Reduce(s, skiff.TeamLeft{TeamID: "team1"})

	assert.Empty(t, s.Categories.OrderByTeam["team1"])
	for id := range s.Categories.ByID {
		assert.NotContains(t, id, "team1")
	}
	assert.Nil(t, s.Channel("channel1"))

	// team2 untouched
	assert.Len(t, s.Categories.OrderByTeam["team2"], 3)
	assert.NoError(t, store.Validate(s))
}

func TestLoggedOutResets(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))
	s = store.Reduce(s, skiff.PreferencesChanged{Preferences: []skiff.Preference{
		{UserID: "me", Category: skiff.PreferenceFavoriteChannel, Name: "channel1", Value: "true"},
	}})

	s = store.Reduce(s, skiff.LoggedOut{})

	assert.Empty(t, s.Categories.ByID)
	assert.Empty(t, s.Categories.OrderByTeam)
	assert.Empty(t, s.Entities.Preferences)
}

func TestTeamCategoriesRestored(t *testing.T) {
	s := store.Reduce(store.NewState(), membershipFor("team1"))
	snapshot := skiff.TeamCategoriesRestored{
		TeamID: "team1",
		Categories: []*skiff.ChannelCategory{
			{ID: "team1-favorites", TeamID: "team1", Type: skiff.CategoryFavorites, ChannelIDs: []string{}},
			{ID: "team1-channels", TeamID: "team1", Type: skiff.CategoryChannels, ChannelIDs: []string{"channel1"}},
			{ID: "team1-direct_messages", TeamID: "team1", Type: skiff.CategoryDirectMessages, ChannelIDs: []string{}},
		},
		Order: []string{"team1-favorites", "team1-channels", "team1-direct_messages"},
	}

	// an optimistic temporary shows up, then the mutation fails
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID: "tmp_abc", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{"channel1"},
	}})
	s = store.Reduce(s, skiff.CategoryOrderReceived{
		TeamID: "team1",
		Order:  []string{"tmp_abc", "team1-favorites", "team1-channels", "team1-direct_messages"},
	})

	s = store.Reduce(s, snapshot)

	assert.Nil(t, s.Category("tmp_abc"))
	assert.Equal(t, snapshot.Order, s.Categories.OrderByTeam["team1"])
	assert.Equal(t, []string{"channel1"}, s.Categories.ByID["team1-channels"].ChannelIDs)
	assert.NoError(t, store.Validate(s))
}

func TestPostReceivedKeepsLatest(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.PostReceived{ChannelID: "channel1", CreateAt: 200})
	assert.EqualValues(t, 200, s.Entities.LastPostAt["channel1"])

	// stale post doesn't move the watermark and doesn't allocate
	again := store.Reduce(s, skiff.PostReceived{ChannelID: "channel1", CreateAt: 100})
	assert.Equal(t, mapRef(s.Entities.LastPostAt), mapRef(again.Entities.LastPostAt))
}

func TestChannelsReceivedBucketIsolation(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.ChannelsReceived{Channels: []*skiff.Channel{
		{ID: "channel1", TeamID: "team1", Type: skiff.ChannelOpen},
		{ID: "dm1", TeamID: "", Type: skiff.ChannelDirect},
	}})

	team1 := s.Entities.ChannelsByTeam["team1"]
	dms := s.Entities.ChannelsByTeam[""]

	s = store.Reduce(s, skiff.ChannelsReceived{Channels: []*skiff.Channel{
		{ID: "channel2", TeamID: "team2", Type: skiff.ChannelOpen},
	}})

	// buckets of unrelated teams keep their identity
	assert.Equal(t, mapRef(team1), mapRef(s.Entities.ChannelsByTeam["team1"]))
	assert.Equal(t, mapRef(dms), mapRef(s.Entities.ChannelsByTeam[""]))

	// redelivering an identical channel changes nothing at all
	again := store.Reduce(s, skiff.ChannelsReceived{Channels: []*skiff.Channel{
		{ID: "channel1", TeamID: "team1", Type: skiff.ChannelOpen},
	}})
	assert.Equal(t, mapRef(s.Entities.ChannelsByTeam), mapRef(again.Entities.ChannelsByTeam))
}

func TestPreferencesDeletedMiss(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.PreferencesChanged{Preferences: []skiff.Preference{
		{UserID: "me", Category: skiff.PreferenceDirectChannelShow, Name: "user2", Value: "true"},
	}})

	again := store.Reduce(s, skiff.PreferencesDeleted{Preferences: []skiff.Preference{
		{UserID: "me", Category: skiff.PreferenceDirectChannelShow, Name: "user3"},
	}})
	assert.Equal(t, mapRef(s.Entities.Preferences), mapRef(again.Entities.Preferences))

	gone := store.Reduce(s, skiff.PreferencesDeleted{Preferences: []skiff.Preference{
		{UserID: "me", Category: skiff.PreferenceDirectChannelShow, Name: "user2"},
	}})
	assert.Empty(t, gone.Entities.Preferences)
}
