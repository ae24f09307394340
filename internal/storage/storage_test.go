package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "swampswipe.db"))
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// kvBackends returns every KV implementation that can run in this environment.
func kvBackends(t *testing.T) map[string]KV {
	t.Helper()
	out := map[string]KV{
		"memory": NewMemoryKV(),
		"sqlite": openTestSQLite(t),
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		pg, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestKVContract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			key := "kv_contract_" + uuid.NewString()

			_, found, err := kv.Get(ctx, key+"_absent")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, kv.Set(ctx, key, "one"))
			require.NoError(t, kv.Set(ctx, key, "two"))

			v, found, err := kv.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "two", v)
		})
	}
}

func TestSQLiteStoreOneRowPerKey(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))
	require.NoError(t, s.Set(ctx, "b", "3"))

	n, err := s.CountKeys()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPreferenceStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := &PreferenceStore{kv: kv, key: "prefs_roundtrip_" + uuid.NewString()}

			_, found, err := s.Load(ctx)
			require.NoError(t, err)
			assert.False(t, found, "first run has nothing stored")

			want := domain.Preferences{MinPrice: 700, MaxPrice: 1200, Beds: 1, CommuteMode: domain.Bus, MaxCommuteTime: 10, Liveliness: 5}
			require.NoError(t, s.Save(ctx, want))

			got, found, err := s.Load(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)
		})
	}
}

func TestPreferenceStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewPreferenceStore(kv)

	require.NoError(t, kv.Set(ctx, PreferencesKey, "{not json"))
	_, found, err := s.Load(ctx)
	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrPersistenceRead)

	require.NoError(t, kv.Set(ctx, PreferencesKey, `{"minPrice":500,"maxPrice":2000,"beds":2,"commuteMode":"rocket","maxCommuteTime":20,"liveliness":3}`))
	_, _, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistenceRead)
}

func TestPreferenceStoreReadFailure(t *testing.T) {
	_, _, err := NewPreferenceStore(failingKV{}).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistenceRead)
}

func TestLikedStoreAddRemove(t *testing.T) {
	ctx := context.Background()
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := &LikedStore{kv: kv, key: "liked_add_remove_" + uuid.NewString()}

			ids, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			require.NoError(t, s.Add(ctx, "3"))
			require.NoError(t, s.Add(ctx, "1"))
			require.NoError(t, s.Add(ctx, "3"))

			ids, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"3", "1"}, ids)

			require.NoError(t, s.Remove(ctx, "3"))
			ids, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1"}, ids)

			require.NoError(t, s.Remove(ctx, "1"))
			ids, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestLikedStoreCorruptValueIsReplacedOnWrite(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewLikedStore(kv)
	require.NoError(t, kv.Set(ctx, LikedKey, `"oops"`))

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistenceRead)

	require.NoError(t, s.Add(ctx, "7"))
	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ids)
}

func TestLikedStoreReadFailureDoesNotWrite(t *testing.T) {
	err := NewLikedStore(failingKV{}).Add(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrPersistenceRead)
}
