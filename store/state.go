package store

import (
	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
)

// Bucket holds the channels of one team by ID. The empty team key
// holds direct and group channels, which are team-agnostic.
type Bucket map[string]*skiff.Channel

// EntityState is the normalized cache of server entities the sidebar
// reads. Maps are copy-on-write: reducers replace a map (or a team's
// bucket) only when something inside it changed, so an untouched slice
// keeps its reference across dispatches and memoized selectors can key
// on identity.
type EntityState struct {
	CurrentUserID    string
	CurrentChannelID string

	// server-side flag gating the DM/GM auto-close heuristic
	CloseUnusedDirectMessages bool

	Users            map[string]*skiff.User
	ChannelsByTeam   map[string]Bucket
	Members          map[string]*skiff.ChannelMember
	UserIDsByChannel map[string][]string
	Preferences      map[string]skiff.Preference
	LastPostAt       map[string]int64
}

// CategoryState owns the category records and each team's display
// order, kept separate so reordering never rewrites category objects.
type CategoryState struct {
	ByID        map[string]*skiff.ChannelCategory
	OrderByTeam map[string][]string
}

// State is the complete store state. It is treated as immutable: every
// reducer returns a new value sharing all unchanged maps.
type State struct {
	Entities   EntityState
	Categories CategoryState
}

// NewState returns an empty state with all maps allocated.
func NewState() State {
	return State{
		Entities: EntityState{
			Users:            map[string]*skiff.User{},
			ChannelsByTeam:   map[string]Bucket{},
			Members:          map[string]*skiff.ChannelMember{},
			UserIDsByChannel: map[string][]string{},
			Preferences:      map[string]skiff.Preference{},
			LastPostAt:       map[string]int64{},
		},
		Categories: CategoryState{
			ByID:        map[string]*skiff.ChannelCategory{},
			OrderByTeam: map[string][]string{},
		},
	}
}

// Channel looks a channel up across all team buckets.
func (s State) Channel(id string) *skiff.Channel {
	for _, bucket := range s.Entities.ChannelsByTeam {
		if c, ok := bucket[id]; ok {
			return c
		}
	}
	return nil
}

// Category returns the category record or nil.
func (s State) Category(id string) *skiff.ChannelCategory {
	return s.Categories.ByID[id]
}

// Preference returns the stored preference and whether it exists.
func (s State) Preference(category, name string) (skiff.Preference, bool) {
	p, ok := s.Entities.Preferences[skiff.PreferenceKey(category, name)]
	return p, ok
}

// TeamCategories returns every category belonging to one team, in no
// particular order. Used by snapshots and rollback.
func (s State) TeamCategories(teamID string) []*skiff.ChannelCategory {
	var out []*skiff.ChannelCategory
	for _, c := range s.Categories.ByID {
		if c.TeamID == teamID {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that the category order arrays and the byId map agree:
// every ordered ID resolves and every category appears in its team's
// order. Reducers tolerate transient drift; tests use this to prove a
// sequence of events settles consistent.
func Validate(s State) error {
	for teamID, order := range s.Categories.OrderByTeam {
		for _, id := range order {
			if _, ok := s.Categories.ByID[id]; !ok {
				return errors.Errorf("order for team %s references missing category %s", teamID, id)
			}
		}
	}

	for id, c := range s.Categories.ByID {
		found := false
		for _, ordered := range s.Categories.OrderByTeam[c.TeamID] {
			if ordered == id {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("category %s missing from order of team %s", id, c.TeamID)
		}
	}
	return nil
}

func cloneBucket(b Bucket) Bucket {
	out := make(Bucket, len(b)+1)
	for id, c := range b {
		out[id] = c
	}
	return out
}

func cloneCategories(m map[string]*skiff.ChannelCategory) map[string]*skiff.ChannelCategory {
	out := make(map[string]*skiff.ChannelCategory, len(m)+1)
	for id, c := range m {
		out[id] = c
	}
	return out
}

func cloneOrders(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m)+1)
	for id, o := range m {
		out[id] = o
	}
	return out
}
