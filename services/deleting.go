package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

type deleter struct {
	base
}

// NewDeleter wires the store and API into a skiff.CategoryDeleter.
func NewDeleter(st *store.Store, api API) (skiff.CategoryDeleter, error) {
	return &deleter{base{Store: st, API: api}}, nil
}

// DeleteCategory removes a custom category. Channels it held are
// redistributed into the team's default categories: favorited channels
// go back to Favorites, direct and group channels to Direct Messages,
// everything else to Channels. Default categories cannot be deleted.
func (d *deleter) DeleteCategory(ctx context.Context, categoryID string) error {
	state := d.Store.State()

	category := state.Category(categoryID)
	if category == nil {
		return errors.Errorf("unknown category %s", categoryID)
	}
	if category.Type != skiff.CategoryCustom {
		return errors.Errorf("category %s is a default category", categoryID)
	}

	snap := d.snapshot(category.TeamID)

	patches := map[string]*skiff.ChannelCategory{}
	for _, channelID := range category.ChannelIDs {
		targetID := redistributionTarget(state, category.TeamID, channelID)

		target := patches[targetID]
		if target == nil {
			if existing := state.Category(targetID); existing != nil {
				target = existing.Clone()
			} else {
				// default categories exist whenever memberships were
				// seen; a miss means transient drift, skip the channel
				continue
			}
		}
		if !target.HasChannel(channelID) {
			target.ChannelIDs = insertAt(target.ChannelIDs, channelID, 0)
		}
		patches[targetID] = target
	}

	events := []skiff.Event{skiff.CategoryDeleted{CategoryID: categoryID}}
	if len(patches) > 0 {
		var changed []*skiff.ChannelCategory
		for _, c := range patches {
			changed = append(changed, c)
		}
		events = append([]skiff.Event{skiff.CategoriesReceived{Categories: changed}}, events...)
	}
	d.Store.Dispatch(events...)

	if err := d.API.DeleteCategory(ctx, d.currentUserID(), category.TeamID, categoryID); err != nil {
		return d.rollback(snap, err, "delete category")
	}
	return nil
}

// redistributionTarget picks the default category a channel falls back
// into when its custom category goes away.
func redistributionTarget(s store.State, teamID, channelID string) string {
	if favoriteChannel(s, channelID) {
		return skiff.DefaultCategoryID(teamID, skiff.CategoryFavorites)
	}

	c := s.Channel(channelID)
	if c != nil && c.IsDirectOrGroup() {
		return skiff.DefaultCategoryID(teamID, skiff.CategoryDirectMessages)
	}
	return skiff.DefaultCategoryID(teamID, skiff.CategoryChannels)
}

func favoriteChannel(s store.State, channelID string) bool {
	p, ok := s.Preference(skiff.PreferenceFavoriteChannel, channelID)
	return ok && p.Value != "" && p.Value != "false"
}
