package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// BankPayloadKey returns the cache key for the raw bank document of a source.
// The source is hashed so paths and URLs never leak into key syntax.
func (r *CacheKeyStruct) BankPayloadKey(source string) string {
	sum := sha1.Sum([]byte(source))
	return fmt.Sprintf("bank:%s:payload", hex.EncodeToString(sum[:8]))
}

var CacheKey = NewCacheKeyStruct()
