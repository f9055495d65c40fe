package skiff

// Event is the closed set of store events. Reducers dispatch on the
// concrete type, so every producer (REST sync, websocket stream, cache
// replay, mutation actions) funnels through the same tagged union and a
// reducer that forgets a case fails loudly in tests rather than in a
// stringly-typed switch.
type Event interface {
	isStoreEvent()
}

// CurrentUserSet records which user this store belongs to.
type CurrentUserSet struct {
	UserID string
}

// CurrentChannelSet records the channel open in the UI. The auto-close
// filter never hides the channel being viewed.
type CurrentChannelSet struct {
	ChannelID string
}

// ServerSettingsReceived carries the server-side flags the sidebar
// honors, fetched once at connect.
type ServerSettingsReceived struct {
	CloseUnusedDirectMessages bool
}

// UsersReceived merges user profiles into the entity store.
type UsersReceived struct {
	Users []*User
}

// ChannelsReceived merges channels into their per-team buckets.
type ChannelsReceived struct {
	Channels []*Channel
}

// ChannelDeleted drops a channel the server archived.
type ChannelDeleted struct {
	ChannelID string
}

// ChannelLeft drops a channel the user is no longer a member of and
// scrubs its ID from every category.
type ChannelLeft struct {
	ChannelID string
}

// ChannelMembersReceived merges the current user's read state.
type ChannelMembersReceived struct {
	Members []*ChannelMember
}

// UserIDsInChannelReceived records who participates in a group channel.
type UserIDsInChannelReceived struct {
	ChannelID string
	UserIDs   []string
}

// PostReceived advances a channel's last-activity watermark.
type PostReceived struct {
	ChannelID string
	CreateAt  int64
}

// PreferencesChanged upserts preference entries.
type PreferencesChanged struct {
	Preferences []Preference
}

// PreferencesDeleted removes preference entries by key.
type PreferencesDeleted struct {
	Preferences []Preference
}

// TeamMembershipsReceived announces the teams the user belongs to.
// First sight of a team lazily synthesizes its default categories.
type TeamMembershipsReceived struct {
	TeamIDs []string
}

// TeamLeft purges a team's categories and order.
type TeamLeft struct {
	TeamID string
}

// CategoryReceived merges one category record.
type CategoryReceived struct {
	Category *ChannelCategory
}

// CategoriesReceived merges many category records.
type CategoriesReceived struct {
	Categories []*ChannelCategory
}

// CategoryOrderReceived replaces a team's category order wholesale.
type CategoryOrderReceived struct {
	TeamID string
	Order  []string
}

// CategoryDeleted removes a category and its order entry.
type CategoryDeleted struct {
	CategoryID string
}

// CategorySortingChanged patches a category's sorting mode locally.
type CategorySortingChanged struct {
	CategoryID string
	Sorting    CategorySorting
}

// TeamCategoriesRestored replaces every category of one team, and the
// team's order, with a snapshot. Mutation actions dispatch this to roll
// back a failed optimistic update; the snapshot is the one captured when
// the optimistic update was issued, not the previous state, so racing
// mutations cannot resurrect each other's intermediate steps.
type TeamCategoriesRestored struct {
	TeamID     string
	Categories []*ChannelCategory
	Order      []string
}

// LoggedOut resets the store to empty.
type LoggedOut struct{}

func (CurrentUserSet) isStoreEvent()           {}
func (CurrentChannelSet) isStoreEvent()        {}
func (ServerSettingsReceived) isStoreEvent()   {}
func (UsersReceived) isStoreEvent()            {}
func (ChannelsReceived) isStoreEvent()         {}
func (ChannelDeleted) isStoreEvent()           {}
func (ChannelLeft) isStoreEvent()              {}
func (ChannelMembersReceived) isStoreEvent()   {}
func (UserIDsInChannelReceived) isStoreEvent() {}
func (PostReceived) isStoreEvent()             {}
func (PreferencesChanged) isStoreEvent()       {}
func (PreferencesDeleted) isStoreEvent()       {}
func (TeamMembershipsReceived) isStoreEvent()  {}
func (TeamLeft) isStoreEvent()                 {}
func (CategoryReceived) isStoreEvent()         {}
func (CategoriesReceived) isStoreEvent()       {}
func (CategoryOrderReceived) isStoreEvent()    {}
func (CategoryDeleted) isStoreEvent()          {}
func (CategorySortingChanged) isStoreEvent()   {}
func (TeamCategoriesRestored) isStoreEvent()   {}
func (LoggedOut) isStoreEvent()                {}
