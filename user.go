package skiff

// User represents a basic user of skiff. Only the fields the sidebar
// needs to label and filter channels are kept client-side.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	DeleteAt  int64  `json:"delete_at"`
}

// Deactivated reports whether the account has been disabled server-side.
func (u *User) Deactivated() bool {
	return u.DeleteAt > 0
}

// SortName is the name a direct or group channel is sorted under on
// behalf of this user: nickname, then full name, then username.
func (u *User) SortName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
