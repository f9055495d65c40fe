package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

type creater struct {
	base
}

// NewCreater wires the store and API into a skiff.CategoryCreater.
func NewCreater(st *store.Store, api API) (skiff.CategoryCreater, error) {
	return &creater{base{Store: st, API: api}}, nil
}

// CreateCategory adds a custom category optimistically under a
// temporary ID, swapped for the server-assigned record on success. The
// new category slots in right below Favorites when Favorites leads the
// order, otherwise at the top; any channels handed in are stolen from
// whichever category of the team held them.
func (c *creater) CreateCategory(ctx context.Context, teamID, displayName string, channelIDs []string) (*skiff.ChannelCategory, error) {
	snap := c.snapshot(teamID)
	state := c.Store.State()

	category := &skiff.ChannelCategory{
		ID:          "tmp_" + uuid.NewString(),
		TeamID:      teamID,
		Type:        skiff.CategoryCustom,
		DisplayName: displayName,
		ChannelIDs:  append([]string(nil), channelIDs...),
	}

	patches := map[string]*skiff.ChannelCategory{}
	for _, id := range channelIDs {
		holder := categoryHolding(state, teamID, id)
		if holder == nil {
			continue
		}
		patched := holder.Clone()
		patched.ChannelIDs = removeID(patched.ChannelIDs, id)
		patches[patched.ID] = patched
		state = store.Reduce(state, skiff.CategoryReceived{Category: patched})
	}

	changed := []*skiff.ChannelCategory{category}
	for _, patched := range patches {
		changed = append(changed, patched)
	}

	order := insertAt(snap.Order, category.ID, createIndex(state, teamID, snap.Order))

	c.Store.Dispatch(
		skiff.CategoriesReceived{Categories: changed},
		skiff.CategoryOrderReceived{TeamID: teamID, Order: order},
	)

	confirmed, err := c.API.CreateCategory(ctx, c.currentUserID(), teamID, category)
	if err != nil {
		return nil, c.rollback(snap, err, "create category")
	}
	if confirmed == nil {
		return nil, c.rollback(snap, errors.New("empty response"), "create category")
	}

	// swap the temporary record for the server's, keeping its position
	c.Store.Dispatch(
		skiff.CategoryDeleted{CategoryID: category.ID},
		skiff.CategoryReceived{Category: confirmed},
		skiff.CategoryOrderReceived{TeamID: teamID, Order: replaceID(order, category.ID, confirmed.ID)},
	)
	return confirmed, nil
}

// createIndex picks where a new category lands in the team order:
// below a leading Favorites category, else first.
func createIndex(s store.State, teamID string, order []string) int {
	if len(order) == 0 {
		return 0
	}
	if c := s.Category(order[0]); c != nil && c.Type == skiff.CategoryFavorites {
		return 1
	}
	return 0
}

func replaceID(ids []string, old, new string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id == old {
			out[i] = new
		} else {
			out[i] = id
		}
	}
	return out
}
