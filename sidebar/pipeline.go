// Package sidebar derives the ordered, filtered channel lists shown in
// the sidebar from raw store state. Every derivation is a pure function
// of the state slices it reads, memoized on their identity: reducers
// only swap a map when its contents change, so unchanged inputs return
// the previous output reference and the UI skips the re-render.
package sidebar

import (
	"reflect"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

// DefaultAutoCloseAfter is the retention window for the DM/GM
// auto-close heuristic when the config doesn't override it.
const DefaultAutoCloseAfter = 7 * 24 * time.Hour

// Options tunes a Pipeline.
type Options struct {
	// Locale for name collation, BCP 47. Empty means "en".
	Locale string

	// AutoCloseAfter is how long a DM/GM may sit unused before the
	// auto-close filter hides it. Zero means DefaultAutoCloseAfter.
	AutoCloseAfter time.Duration

	// Now is a clock override for tests.
	Now func() time.Time
}

// Pipeline owns the collator and tuning for sidebar derivation. Like
// the store it serves, it expects single-goroutine use.
type Pipeline struct {
	coll           *collate.Collator
	autoCloseAfter time.Duration
	now            func() time.Time
}

// New builds a Pipeline from options, filling defaults.
func New(opts Options) *Pipeline {
	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}

	p := &Pipeline{
		// numeric collation sorts "Channel 2" before "Channel 10"
		coll:           collate.New(language.Make(locale), collate.Numeric, collate.Loose),
		autoCloseAfter: opts.AutoCloseAfter,
		now:            opts.Now,
	}
	if p.autoCloseAfter == 0 {
		p.autoCloseAfter = DefaultAutoCloseAfter
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// CategoryIDsForTeam returns the team's category IDs in display order.
// The returned slice is store-owned; callers must not modify it.
func CategoryIDsForTeam(s store.State, teamID string) []string {
	return s.Categories.OrderByTeam[teamID]
}

// MakeCategoriesForTeam returns a memoized selector resolving a team's
// ordered category records. IDs the order lists but the byId map lacks
// (transient drift) are skipped.
func MakeCategoriesForTeam() func(store.State, string) []*skiff.ChannelCategory {
	var lastByID map[string]*skiff.ChannelCategory
	var lastOrder []string
	var lastOut []*skiff.ChannelCategory

	return func(s store.State, teamID string) []*skiff.ChannelCategory {
		order := s.Categories.OrderByTeam[teamID]
		if sameRef(s.Categories.ByID, lastByID) && sameSlice(order, lastOrder) {
			return lastOut
		}

		out := make([]*skiff.ChannelCategory, 0, len(order))
		for _, id := range order {
			if c, ok := s.Categories.ByID[id]; ok {
				out = append(out, c)
			}
		}

		lastByID = s.Categories.ByID
		lastOrder = order
		lastOut = out
		return out
	}
}

// MakeChannelsForCategory returns the full derivation chain:
// gather → favorites filter → type filter → auto-close filter →
// manual-close filter → sort. Each selector instance keeps per-category
// caches, so one instance can serve a whole sidebar.
func (p *Pipeline) MakeChannelsForCategory() func(store.State, *skiff.ChannelCategory) []*skiff.Channel {
	cache := newCategoryCache()

	return func(s store.State, category *skiff.ChannelCategory) []*skiff.Channel {
		return cache.derivationFor(s, category.ID).run(p, s, category)
	}
}

// categoryCache holds one derivation per category the selector has
// served. Entries for categories the byId map no longer knows (deleted
// ones, confirmed optimistic temporaries) are evicted, so memo state
// doesn't pile up over the selector's lifetime.
type categoryCache struct {
	entries  map[string]*derivation
	lastByID map[string]*skiff.ChannelCategory
}

func newCategoryCache() *categoryCache {
	return &categoryCache{entries: map[string]*derivation{}}
}

func (c *categoryCache) derivationFor(s store.State, categoryID string) *derivation {
	if !sameRef(s.Categories.ByID, c.lastByID) {
		for id := range c.entries {
			if _, ok := s.Categories.ByID[id]; !ok {
				delete(c.entries, id)
			}
		}
		c.lastByID = s.Categories.ByID
	}

	d := c.entries[categoryID]
	if d == nil {
		d = &derivation{}
		c.entries[categoryID] = d
	}
	return d
}

// derivation is the memo state for one category: the inputs each stage
// last saw and the output it produced. A stage reruns only when one of
// its own inputs moved; its unchanged output then short-circuits every
// later stage.
type derivation struct {
	teamBucket store.Bucket
	dmBucket   store.Bucket
	gathered   []*skiff.Channel

	favIn    []*skiff.Channel
	favPrefs map[string]skiff.Preference
	favType  skiff.CategoryType
	favOut   []*skiff.Channel

	typeIn  []*skiff.Channel
	typeOf  skiff.CategoryType
	typeOut []*skiff.Channel

	autoIn      []*skiff.Channel
	autoPrefs   map[string]skiff.Preference
	autoMembers map[string]*skiff.ChannelMember
	autoUsers   map[string]*skiff.User
	autoLast    map[string]int64
	autoCurrent string
	autoFlag    bool
	autoType    skiff.CategoryType
	autoOut     []*skiff.Channel

	closedIn    []*skiff.Channel
	closedPrefs map[string]skiff.Preference
	closedUser  string
	closedOut   []*skiff.Channel

	sortIn      []*skiff.Channel
	sortMode    skiff.CategorySorting
	sortManual  []string
	sortUsers   map[string]*skiff.User
	sortUserIDs map[string][]string
	sortLast    map[string]int64
	sortUser    string
	sortOut     []*skiff.Channel
}

func (d *derivation) run(p *Pipeline, s store.State, category *skiff.ChannelCategory) []*skiff.Channel {
	ent := s.Entities

	team := ent.ChannelsByTeam[category.TeamID]
	dm := ent.ChannelsByTeam[""]
	if !sameRef(team, d.teamBucket) || !sameRef(dm, d.dmBucket) {
		d.gathered = gather(team, dm)
		d.teamBucket, d.dmBucket = team, dm
	}

	if !sameChannels(d.gathered, d.favIn) || !sameRef(ent.Preferences, d.favPrefs) || category.Type != d.favType {
		d.favOut = filterFavorites(d.gathered, ent.Preferences, category.Type == skiff.CategoryFavorites)
		d.favIn, d.favPrefs, d.favType = d.gathered, ent.Preferences, category.Type
	}

	if !sameChannels(d.favOut, d.typeIn) || category.Type != d.typeOf {
		d.typeOut = filterByType(d.favOut, category.Type)
		d.typeIn, d.typeOf = d.favOut, category.Type
	}

	if !sameChannels(d.typeOut, d.autoIn) || !sameRef(ent.Preferences, d.autoPrefs) ||
		!sameRef(ent.Members, d.autoMembers) || !sameRef(ent.Users, d.autoUsers) ||
		!sameRef(ent.LastPostAt, d.autoLast) || ent.CurrentChannelID != d.autoCurrent ||
		ent.CloseUnusedDirectMessages != d.autoFlag || category.Type != d.autoType {
		d.autoOut = p.filterAutoClosed(d.typeOut, s, category.Type)
		d.autoIn, d.autoPrefs, d.autoMembers = d.typeOut, ent.Preferences, ent.Members
		d.autoUsers, d.autoLast = ent.Users, ent.LastPostAt
		d.autoCurrent, d.autoFlag, d.autoType = ent.CurrentChannelID, ent.CloseUnusedDirectMessages, category.Type
	}

	if !sameChannels(d.autoOut, d.closedIn) || !sameRef(ent.Preferences, d.closedPrefs) ||
		ent.CurrentUserID != d.closedUser {
		d.closedOut = filterManuallyClosed(d.autoOut, s)
		d.closedIn, d.closedPrefs, d.closedUser = d.autoOut, ent.Preferences, ent.CurrentUserID
	}

	if !sameChannels(d.closedOut, d.sortIn) || category.Sorting != d.sortMode ||
		!sameSlice(category.ChannelIDs, d.sortManual) || !sameRef(ent.Users, d.sortUsers) ||
		!sameRef(ent.UserIDsByChannel, d.sortUserIDs) || !sameRef(ent.LastPostAt, d.sortLast) ||
		ent.CurrentUserID != d.sortUser {
		d.sortOut = p.sortChannels(s, category, d.closedOut)
		d.sortIn, d.sortMode, d.sortManual = d.closedOut, category.Sorting, category.ChannelIDs
		d.sortUsers, d.sortUserIDs, d.sortLast = ent.Users, ent.UserIDsByChannel, ent.LastPostAt
		d.sortUser = ent.CurrentUserID
	}

	return d.sortOut
}

func sameRef(a, b interface{}) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func sameSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func sameChannels(a, b []*skiff.Channel) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
