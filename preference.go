package skiff

// preference categories the sidebar core reads and writes
const (
	PreferenceDirectChannelShow = "direct_channel_show"
	PreferenceGroupChannelShow  = "group_channel_show"
	PreferenceFavoriteChannel   = "favorite_channel"

	// per-channel timestamps (ms) backing the auto-close heuristic
	PreferenceChannelOpenTime = "channel_open_time"
	PreferenceChannelViewTime = "channel_approximate_view_time"

	PreferenceSidebarSettings = "sidebar_settings"
	PreferenceNameCloseUnused = "close_unused_direct_messages"
	PreferenceCloseAfterWeek  = "after_seven_days"
	PreferenceCloseNever      = "never"
)

// Preference is one entry in the user's flat key-value settings store.
type Preference struct {
	UserID   string `json:"user_id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// Key returns the map key the store files the preference under.
func (p Preference) Key() string {
	return PreferenceKey(p.Category, p.Name)
}

// PreferenceKey builds the `category--name` key preferences are stored by.
func PreferenceKey(category, name string) string {
	return category + "--" + name
}
