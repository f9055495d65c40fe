// Package services implements the category mutation actions. Every
// action follows the same optimistic shape: snapshot the team's
// categories, dispatch the new state immediately so the UI doesn't wait
// on the network, then call the server; a failure dispatches the
// snapshot back and surfaces the error to the caller.
package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

// API is the slice of the REST client the mutation actions need.
type API interface {
	CreateCategory(ctx context.Context, userID, teamID string, category *skiff.ChannelCategory) (*skiff.ChannelCategory, error)
	UpdateCategories(ctx context.Context, userID, teamID string, categories []*skiff.ChannelCategory) ([]*skiff.ChannelCategory, error)
	UpdateCategoryOrder(ctx context.Context, userID, teamID string, order []string) ([]string, error)
	DeleteCategory(ctx context.Context, userID, teamID, categoryID string) error
	SavePreferences(ctx context.Context, userID string, preferences []skiff.Preference) error
	DeletePreferences(ctx context.Context, userID string, preferences []skiff.Preference) error
}

// base carries the two dependencies every action shares.
type base struct {
	Store *store.Store
	API   API
}

// snapshot captures one team's categories and order for rollback. The
// clone happens now: rolling back must restore the state as it was when
// the optimistic update was issued, not whatever a racing mutation left
// behind in the meantime.
func (b base) snapshot(teamID string) skiff.TeamCategoriesRestored {
	s := b.Store.State()

	var categories []*skiff.ChannelCategory
	for _, c := range s.TeamCategories(teamID) {
		categories = append(categories, c.Clone())
	}

	return skiff.TeamCategoriesRestored{
		TeamID:     teamID,
		Categories: categories,
		Order:      append([]string(nil), s.Categories.OrderByTeam[teamID]...),
	}
}

// rollback restores the snapshot and wraps the server error.
func (b base) rollback(snap skiff.TeamCategoriesRestored, err error, msg string) error {
	logrus.WithError(err).Warnf("rolling back %s for team %s", msg, snap.TeamID)
	b.Store.Dispatch(snap)
	return errors.Wrap(err, msg)
}

func (b base) currentUserID() string {
	return b.Store.State().Entities.CurrentUserID
}

// insertAt places id at index with set semantics: any existing entry is
// removed first, and the index is clamped to the list.
func insertAt(ids []string, id string, index int) []string {
	out := removeID(ids, id)
	if index < 0 {
		index = 0
	}
	if index > len(out) {
		index = len(out)
	}
	out = append(out, "")
	copy(out[index+1:], out[index:])
	out[index] = id
	return out
}

// removeID drops id from the list; absent IDs are a no-op.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// categoryHolding finds the category of the team that currently lists
// the channel, or nil.
func categoryHolding(s store.State, teamID, channelID string) *skiff.ChannelCategory {
	for _, c := range s.TeamCategories(teamID) {
		if c.HasChannel(channelID) {
			return c
		}
	}
	return nil
}
