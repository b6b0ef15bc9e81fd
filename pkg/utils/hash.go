package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// ListingCacheKey builds the cache key for a full record listing.
func ListingCacheKey(workspaceID, recordType string) string {
	return HashString(strings.ToLower(workspaceID + ":" + recordType))
}
