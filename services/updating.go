package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

type updater struct {
	base
}

// NewUpdater wires the store and API into a skiff.CategoryUpdater.
func NewUpdater(st *store.Store, api API) (skiff.CategoryUpdater, error) {
	return &updater{base{Store: st, API: api}}, nil
}

// RenameCategory patches only the display name.
func (u *updater) RenameCategory(ctx context.Context, categoryID, displayName string) error {
	return u.patch(ctx, categoryID, "rename category", func(c *skiff.ChannelCategory) {
		c.DisplayName = displayName
	})
}

// SetCategorySorting changes the category's sorting mode and persists
// it like every other mutation.
func (u *updater) SetCategorySorting(ctx context.Context, categoryID string, sorting skiff.CategorySorting) error {
	return u.patch(ctx, categoryID, "set category sorting", func(c *skiff.ChannelCategory) {
		c.Sorting = sorting
	})
}

func (u *updater) patch(ctx context.Context, categoryID, what string, mutate func(*skiff.ChannelCategory)) error {
	existing := u.Store.State().Category(categoryID)
	if existing == nil {
		return errors.Errorf("unknown category %s", categoryID)
	}

	snap := u.snapshot(existing.TeamID)

	patched := existing.Clone()
	mutate(patched)
	u.Store.Dispatch(skiff.CategoryReceived{Category: patched})

	confirmed, err := u.API.UpdateCategories(ctx, u.currentUserID(), existing.TeamID, []*skiff.ChannelCategory{patched})
	if err != nil {
		return u.rollback(snap, err, what)
	}
	u.Store.Dispatch(skiff.CategoriesReceived{Categories: confirmed})
	return nil
}
