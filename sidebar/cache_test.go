package sidebar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

func TestCategoryCacheEvictsGoneCategories(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.TeamMembershipsReceived{TeamIDs: []string{"team1"}})
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID: "tmp_1", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{},
	}})

	cache := newCategoryCache()
	cache.derivationFor(s, "team1-channels")
	cache.derivationFor(s, "tmp_1")
	require.Len(t, cache.entries, 2)

	// the optimistic temporary is confirmed away; its memo state goes too
	s = store.Reduce(s, skiff.CategoryDeleted{CategoryID: "tmp_1"})
	cache.derivationFor(s, "team1-channels")

	assert.NotContains(t, cache.entries, "tmp_1")
	assert.Contains(t, cache.entries, "team1-channels")
}

func TestCategoryCacheKeepsEntriesAcrossUnrelatedChanges(t *testing.T) {
	s := store.Reduce(store.NewState(), skiff.TeamMembershipsReceived{TeamIDs: []string{"team1"}})

	cache := newCategoryCache()
	first := cache.derivationFor(s, "team1-channels")

	// a change that never touches the byId map reuses the entry
	s = store.Reduce(s, skiff.PostReceived{ChannelID: "channel1", CreateAt: 100})
	assert.Same(t, first, cache.derivationFor(s, "team1-channels"))

	// and so does one that does touch it, as long as the category lives
	s = store.Reduce(s, skiff.CategoryReceived{Category: &skiff.ChannelCategory{
		ID: "custom1", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{},
	}})
	assert.Same(t, first, cache.derivationFor(s, "team1-channels"))
}
