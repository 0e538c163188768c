package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserTokenKey returns the cache key registering an issued token id for a user.
func (r *CacheKeyStruct) UserTokenKey(userID int, jti string) string {
	return fmt.Sprintf("user:%d:token:%s", userID, jti)
}

var CacheKey = NewCacheKeyStruct()
