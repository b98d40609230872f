package util

import "strings"

// UserIDPrefix marks a platform user id, as opposed to a username.
const UserIDPrefix = "U-"

// IsUserID reports whether s looks like a user id. The prefix is matched
// case-insensitively.
func IsUserID(s string) bool {
	return len(s) >= len(UserIDPrefix) && strings.EqualFold(s[:len(UserIDPrefix)], UserIDPrefix)
}
