package skiff

// CategoryType discriminates the sidebar category kinds.
type CategoryType string

// category type codes, matching the server's wire values
const (
	CategoryFavorites      CategoryType = "favorites"
	CategoryChannels       CategoryType = "channels"
	CategoryDirectMessages CategoryType = "direct_messages"
	CategoryCustom         CategoryType = "custom"
)

// CategorySorting selects how a category orders its channels.
type CategorySorting string

const (
	// SortDefault falls back to alphabetical ordering.
	SortDefault      CategorySorting = ""
	SortManual       CategorySorting = "manual"
	SortAlphabetical CategorySorting = "alpha"
	SortRecent       CategorySorting = "recent"
)

// ChannelCategory is one named grouping of channels in the sidebar,
// scoped to a single team. ChannelIDs is both membership and, for
// manual sorting, the order the user arranged.
type ChannelCategory struct {
	ID          string          `json:"id"`
	TeamID      string          `json:"team_id"`
	Type        CategoryType    `json:"type"`
	DisplayName string          `json:"display_name"`
	Sorting     CategorySorting `json:"sorting"`
	ChannelIDs  []string        `json:"channel_ids"`
}

// DefaultCategoryID returns the deterministic ID of a team's default
// category. Only the favorites, channels and direct_messages types have
// default categories; custom categories always get server-assigned IDs.
func DefaultCategoryID(teamID string, t CategoryType) string {
	return teamID + "-" + string(t)
}

// Clone returns a deep copy so optimistic snapshots never alias the
// live ChannelIDs slice.
func (c *ChannelCategory) Clone() *ChannelCategory {
	cp := *c
	cp.ChannelIDs = make([]string, len(c.ChannelIDs))
	copy(cp.ChannelIDs, c.ChannelIDs)
	return &cp
}

// HasChannel reports whether the category lists the channel.
func (c *ChannelCategory) HasChannel(channelID string) bool {
	for _, id := range c.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// CategoriesWithOrder is the wire shape the category endpoints exchange:
// the category records plus the team's display order of their IDs.
type CategoriesWithOrder struct {
	Categories []*ChannelCategory `json:"categories"`
	Order      []string           `json:"order"`
}
