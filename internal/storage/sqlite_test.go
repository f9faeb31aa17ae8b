package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err, "Open(:memory:)")
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	v1, err := s1.AppliedMigrations()
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	v2, err := s2.AppliedMigrations()
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
}

func TestGetSetRemove(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("ppg_admin_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("ppg_admin_token", "tok-1"))
	require.NoError(t, s.Set("ppg_admin_token", "tok-2"))

	v, ok, err := s.Get("ppg_admin_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-2", v)

	require.NoError(t, s.Remove("ppg_admin_token"))
	_, ok, err = s.Get("ppg_admin_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("ppg_user_key", "visitor-1"))
	s1.Close()

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get("ppg_user_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "visitor-1", v)
}

func TestKeysByPrefix(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("ppg_history_b", "[]"))
	require.NoError(t, s.Set("ppg_history_a", "[]"))
	require.NoError(t, s.Set("ppg_admin_token", "x"))

	keys, err := s.Keys("ppg_history_")
	require.NoError(t, err)
	assert.Equal(t, []string{"ppg_history_a", "ppg_history_b"}, keys)
}
