package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

type organizer struct {
	base
}

// NewOrganizer wires the store and API into a skiff.ChannelOrganizer.
func NewOrganizer(st *store.Store, api API) (skiff.ChannelOrganizer, error) {
	return &organizer{base{Store: st, API: api}}, nil
}

// MoveChannelToCategory inserts the channel at an explicit position,
// stealing it from whichever category of the team held it. Because the
// user placed it by hand, the destination switches to manual sorting;
// the source keeps its mode. Moving into a Favorites category marks the
// channel favorite, moving out of one clears the mark.
func (o *organizer) MoveChannelToCategory(ctx context.Context, categoryID, channelID string, index int) error {
	return o.moveChannel(ctx, categoryID, channelID, index, true)
}

// MoveCategory shifts a category to a new position in the team's
// order; siblings slide over, nothing is swapped.
func (o *organizer) MoveCategory(ctx context.Context, teamID, categoryID string, index int) error {
	state := o.Store.State()

	category := state.Category(categoryID)
	if category == nil || category.TeamID != teamID {
		return errors.Errorf("team %s has no category %s", teamID, categoryID)
	}

	snap := o.snapshot(teamID)
	order := insertAt(snap.Order, categoryID, index)
	o.Store.Dispatch(skiff.CategoryOrderReceived{TeamID: teamID, Order: order})

	confirmed, err := o.API.UpdateCategoryOrder(ctx, o.currentUserID(), teamID, order)
	if err != nil {
		return o.rollback(snap, err, "move category")
	}
	o.Store.Dispatch(skiff.CategoryOrderReceived{TeamID: teamID, Order: confirmed})
	return nil
}

func (o *organizer) moveChannel(ctx context.Context, categoryID, channelID string, index int, explicit bool) error {
	state := o.Store.State()

	target := state.Category(categoryID)
	if target == nil {
		return errors.Errorf("unknown category %s", categoryID)
	}

	snap := o.snapshot(target.TeamID)
	source := categoryHolding(state, target.TeamID, channelID)

	targetPatch := target.Clone()
	targetPatch.ChannelIDs = insertAt(targetPatch.ChannelIDs, channelID, index)
	if explicit {
		targetPatch.Sorting = skiff.SortManual
	}

	changed := []*skiff.ChannelCategory{targetPatch}
	if source != nil && source.ID != target.ID {
		sourcePatch := source.Clone()
		sourcePatch.ChannelIDs = removeID(sourcePatch.ChannelIDs, channelID)
		changed = append(changed, sourcePatch)
	}

	events := []skiff.Event{skiff.CategoriesReceived{Categories: changed}}

	// favorite preference follows membership in a Favorites category
	intoFavorites := target.Type == skiff.CategoryFavorites &&
		(source == nil || source.Type != skiff.CategoryFavorites)
	outOfFavorites := target.Type != skiff.CategoryFavorites &&
		source != nil && source.Type == skiff.CategoryFavorites

	me := state.Entities.CurrentUserID
	favorite := skiff.Preference{
		UserID:   me,
		Category: skiff.PreferenceFavoriteChannel,
		Name:     channelID,
		Value:    "true",
	}
	previous, hadPrevious := state.Preference(skiff.PreferenceFavoriteChannel, channelID)

	var syncPreference func(context.Context) error
	switch {
	case intoFavorites:
		events = append(events, skiff.PreferencesChanged{Preferences: []skiff.Preference{favorite}})
		syncPreference = func(ctx context.Context) error {
			return o.API.SavePreferences(ctx, me, []skiff.Preference{favorite})
		}
	case outOfFavorites:
		events = append(events, skiff.PreferencesDeleted{Preferences: []skiff.Preference{favorite}})
		syncPreference = func(ctx context.Context) error {
			return o.API.DeletePreferences(ctx, me, []skiff.Preference{favorite})
		}
	}

	o.Store.Dispatch(events...)

	undoPreference := func() {
		if syncPreference == nil {
			return
		}
		if hadPrevious {
			o.Store.Dispatch(skiff.PreferencesChanged{Preferences: []skiff.Preference{previous}})
		} else {
			o.Store.Dispatch(skiff.PreferencesDeleted{Preferences: []skiff.Preference{favorite}})
		}
	}

	confirmed, err := o.API.UpdateCategories(ctx, me, target.TeamID, changed)
	if err != nil {
		undoPreference()
		return o.rollback(snap, err, "move channel to category")
	}
	if syncPreference != nil {
		if err := syncPreference(ctx); err != nil {
			undoPreference()
			return o.rollback(snap, err, "save favorite preference")
		}
	}

	o.Store.Dispatch(skiff.CategoriesReceived{Categories: confirmed})
	return nil
}
