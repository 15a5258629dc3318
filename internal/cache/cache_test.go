package cache

import (
	"io/fs"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flightcompare/internal/fsutil"
	"github.com/banshee-data/flightcompare/internal/monitoring"
)

func writeFile(t *testing.T, m *fsutil.MemoryFileSystem, name, body string) {
	t.Helper()
	w, err := m.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestCache_GetSetClear(t *testing.T) {
	c := New(time.Minute, 10)

	hits := testutil.ToFloat64(monitoring.CacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(monitoring.CacheLookups.WithLabelValues("miss"))

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", []byte(`{"a":1}`))
	c.Set("j", []byte(`{}`))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))

	assert.Equal(t, hits+1, testutil.ToFloat64(monitoring.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(monitoring.CacheLookups.WithLabelValues("miss")))

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Clear())
}

func TestCache_Capacity(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", nil)
	c.Set("b", nil)
	c.Set("c", nil)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestCache_Expiry(t *testing.T) {
	c := New(20*time.Millisecond, 10)
	c.Set("a", []byte("x"))
	time.Sleep(50 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	stamp := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return stamp }
	writeFile(t, m, "/s/a.gpx", "aaaa")
	writeFile(t, m, "/s/b.gpx", "bb")

	k1, err := Key(m, "process", "/s/a.gpx", "/s/b.gpx", "", "")
	require.NoError(t, err)
	assert.Equal(t, "process_/s/a.gpx_1714521600000000000_4_/s/b.gpx_1714521600000000000_2__", k1)

	windowed, err := Key(m, "process", "/s/a.gpx", "/s/b.gpx", "2024-05-01 00:00:00", "2024-05-01 01:00:00")
	require.NoError(t, err)
	assert.NotEqual(t, k1, windowed)

	// Rewriting a file changes its stamp.
	m.Now = func() time.Time { return stamp.Add(time.Second) }
	writeFile(t, m, "/s/a.gpx", "aaaa")
	k2, err := Key(m, "process", "/s/a.gpx", "/s/b.gpx", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	_, err = Key(m, "process", "/s/missing.gpx", "/s/b.gpx", "", "")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
