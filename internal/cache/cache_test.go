package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauseguard/internal/model"
)

func TestReportKey(t *testing.T) {
	k1 := ReportKey("sha256:aa", "sha256:bb", model.LanguageEnglish, "")
	assert.Equal(t, k1, ReportKey("sha256:aa", "sha256:bb", model.LanguageEnglish, ""))
	assert.Contains(t, k1, "clauseguard:v1:")

	assert.NotEqual(t, k1, ReportKey("sha256:aa", "sha256:cc", model.LanguageEnglish, ""), "catalog change")
	assert.NotEqual(t, k1, ReportKey("sha256:ab", "sha256:bb", model.LanguageEnglish, ""), "input change")
	assert.NotEqual(t, k1, ReportKey("sha256:aa", "sha256:bb", model.LanguageHindiNormalized, ""), "language change")
	assert.NotEqual(t, k1, ReportKey("sha256:aa", "sha256:bb", model.LanguageEnglish, "llm"), "options change")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set("short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set("k", []byte(`{"a":1}`), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), got)

	info, err := os.Stat(filepath.Join(dir, "k.cache"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, c.Set("old", []byte("x"), -time.Second))
	_, ok = c.Get("old")
	assert.False(t, ok, "expired entries are misses")
	_, err = os.Stat(filepath.Join(dir, "old.cache"))
	assert.True(t, os.IsNotExist(err), "expired entries are removed")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o600))
	require.NoError(t, c.Clear())
	_, ok = c.Get("k")
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err, "Clear only removes cache entries")

	assert.NoError(t, c.Delete("missing"))
}

func TestLayeredCachePromotes(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	// A fresh layered cache over the same directory starts with an empty
	// memory layer
	c2 := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c2.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	mem := c2.memory.(*MemoryCache)
	assert.Equal(t, 1, mem.Len())

	require.NoError(t, c2.Delete("k"))
	_, ok = c2.Get("k")
	assert.False(t, ok)
}

func TestReportRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	report := &model.ContractReport{
		ContractType:   model.ContractLease,
		CompositeScore: 42,
		RiskBand:       model.BandMedium,
		Findings:       []model.RiskFinding{{ClauseIndex: 2, Severity: model.BandMedium, Score: 35, RuleIDs: []string{"auto-renewal"}}},
		CatalogHash:    "sha256:bb",
	}
	require.NoError(t, PutReport(c, "k", report, 0))

	got, ok := GetReport(c, "k")
	require.True(t, ok)
	assert.Equal(t, report.CompositeScore, got.CompositeScore)
	assert.Equal(t, report.Findings, got.Findings)

	require.NoError(t, c.Set("bad", []byte("not json"), 0))
	_, ok = GetReport(c, "bad")
	assert.False(t, ok)
}
