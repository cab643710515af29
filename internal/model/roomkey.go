package model

import "strings"

// NormalizeRoomKey canonicalizes a user-supplied room key: surrounding
// whitespace and one leading "@" are stripped, and the key is lowered so
// "@Foo " and "foo" address the same room.
func NormalizeRoomKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "@")
	return strings.ToLower(key)
}
