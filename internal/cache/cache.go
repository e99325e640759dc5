// Package cache stores finished reports keyed by input and catalog so that
// re-analyzing an unchanged contract against an unchanged catalog is free.
package cache

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/util"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ReportKey derives the cache key for one analysis. Any change to the
// input text, the catalog content or the analysis options yields a new key.
func ReportKey(inputHash, catalogHash string, lang model.Language, options string) string {
	return "clauseguard:v1:" + util.DigestHex([]byte(inputHash+"\x00"+catalogHash+"\x00"+string(lang)+"\x00"+options))
}

// GetReport loads a cached report. Undecodable entries count as misses.
func GetReport(c Cache, key string) (*model.ContractReport, bool) {
	data, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	var report model.ContractReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// PutReport stores a report. ttl 0 uses each layer's default.
func PutReport(c Cache, key string, report *model.ContractReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
