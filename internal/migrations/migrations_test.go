package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	all, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for i, m := range all {
		require.Equal(t, i+1, m.Version, "versions must be contiguous")
		require.NotEmpty(t, m.SQL)
	}
	require.Equal(t, "0001_init", all[0].Name)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_a.sql": {Data: []byte("SELECT 1")},
		"sql/1_b.sql":    {Data: []byte("SELECT 2")},
	}

	_, err := load(fsys, "sql")
	require.Error(t, err)
}

func TestLoadRejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{"sql/init.sql": {Data: []byte("SELECT 1")}}

	_, err := load(fsys, "sql")
	require.Error(t, err)
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	pending := Pending(all, map[int]bool{1: true, 3: true})
	require.Equal(t, []Migration{{Version: 2}}, pending)
	require.Empty(t, Pending(all, map[int]bool{1: true, 2: true, 3: true}))
}
