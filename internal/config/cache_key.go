package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CatalogGenerationKey returns the counter bumped after every committed reconciliation
func (r *CacheKeyStruct) CatalogGenerationKey() string {
	return "catalog:generation"
}

// UnitQueryKey returns the cache key for a unit lookup at a catalog generation
func (r *CacheKeyStruct) UnitQueryKey(generation, fingerprint string) string {
	return fmt.Sprintf("catalog:v%s:units:%s", generation, fingerprint)
}

var CacheKey = NewCacheKeyStruct()
