package camp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// memStore records persisted camps for assertions.
type memStore struct {
	saved   map[string]models.Camp
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]models.Camp)}
}

func (s *memStore) SaveCamp(c *models.Camp) error {
	cp := *c
	cp.Assignees = append([]string(nil), c.Assignees...)
	s.saved[c.Alias] = cp
	return nil
}

func (s *memStore) DeleteCamp(alias string) error {
	s.deleted = append(s.deleted, alias)
	return nil
}

func newTestPool(t *testing.T) (*Pool, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewPool(store, zerolog.Nop()), store
}

func TestExclusiveClaimAndRelease(t *testing.T) {
	pool, store := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-2"}))

	c1, err := pool.Claim("worker-1")
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, "camp-1", c1.Alias)
	assert.Equal(t, models.CampLeased, c1.Status)
	assert.Equal(t, []string{"worker-1"}, c1.Assignees)

	c2, err := pool.Claim("worker-2")
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, "camp-2", c2.Alias)

	// Third claim with both camps leased returns none until a release.
	c3, err := pool.Claim("worker-3")
	require.NoError(t, err)
	assert.Nil(t, c3)

	require.NoError(t, pool.Release("camp-1", "worker-1"))
	assert.Equal(t, models.CampAvailable, pool.Get("camp-1").Status)
	assert.Empty(t, pool.Get("camp-1").Assignees)

	c3, err = pool.Claim("worker-3")
	require.NoError(t, err)
	require.NotNil(t, c3)
	assert.Equal(t, "camp-1", c3.Alias)

	// Every mutation was written through to the store.
	assert.Equal(t, models.CampLeased, store.saved["camp-1"].Status)
}

func TestSharedClaimPrefersMostOccupied(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-2"}))

	c, err := pool.ClaimShared("w1", 3)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "camp-1", c.Alias)

	// Co-location: the second and third claims pile onto camp-1 rather than
	// fragmenting across camp-2.
	c, err = pool.ClaimShared("w2", 3)
	require.NoError(t, err)
	assert.Equal(t, "camp-1", c.Alias)

	c, err = pool.ClaimShared("w3", 3)
	require.NoError(t, err)
	assert.Equal(t, "camp-1", c.Alias)
	assert.Len(t, c.Assignees, 3)

	// camp-1 is full; the next claim falls to the empty camp.
	c, err = pool.ClaimShared("w4", 3)
	require.NoError(t, err)
	assert.Equal(t, "camp-2", c.Alias)
}

func TestSharedCapacityNeverExceeded(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))

	const maxPer = 2
	claimed := 0
	for _, w := range []string{"w1", "w2", "w3", "w4"} {
		c, err := pool.ClaimShared(w, maxPer)
		require.NoError(t, err)
		if c != nil {
			claimed++
			assert.LessOrEqual(t, len(c.Assignees), maxPer)
		}
	}
	assert.Equal(t, maxPer, claimed)
	assert.Len(t, pool.Get("camp-1").Assignees, maxPer)
}

func TestAssignRefusedAtCapacity(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))
	require.NoError(t, pool.Assign("camp-1", "w1", 2))
	require.NoError(t, pool.Assign("camp-1", "w2", 2))

	err := pool.Assign("camp-1", "w3", 2)
	require.Error(t, err)
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "camp-1", capErr.Alias)
	assert.Equal(t, 2, capErr.Capacity)
	assert.Len(t, pool.Get("camp-1").Assignees, 2)
}

func TestSharedReleaseKeepsLeaseForRemainingOccupants(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))

	_, err := pool.ClaimShared("w1", 2)
	require.NoError(t, err)
	_, err = pool.ClaimShared("w2", 2)
	require.NoError(t, err)

	require.NoError(t, pool.Release("camp-1", "w1"))
	c := pool.Get("camp-1")
	assert.Equal(t, models.CampLeased, c.Status)
	assert.Equal(t, []string{"w2"}, c.Assignees)

	require.NoError(t, pool.Release("camp-1", "w2"))
	c = pool.Get("camp-1")
	assert.Equal(t, models.CampAvailable, c.Status)
	assert.Empty(t, c.Assignees)
}

func TestExpiredCampsExcludedFromClaims(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-2"}))
	require.NoError(t, pool.MarkExpired("camp-1"))

	c, err := pool.Claim("w1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "camp-2", c.Alias)

	c, err = pool.ClaimShared("w2", 4)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "camp-2", c.Alias)

	// Expired camps stay listed for audit.
	assert.Len(t, pool.List(), 2)
	assert.Equal(t, models.CampExpired, pool.Get("camp-1").Status)

	require.NoError(t, pool.Remove("camp-1"))
	assert.Len(t, pool.List(), 1)
}

func TestInventorySyncMarksVanishedCampsExpired(t *testing.T) {
	pool, _ := newTestPool(t)
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-1"}))
	require.NoError(t, pool.Register(&models.Camp{Alias: "camp-2"}))

	// camp-2 vanished upstream; camp-3 is new.
	require.NoError(t, Sync(pool, []*models.Camp{
		{Alias: "camp-1"},
		{Alias: "camp-3"},
	}))

	assert.Equal(t, models.CampAvailable, pool.Get("camp-1").Status)
	assert.Equal(t, models.CampExpired, pool.Get("camp-2").Status)
	require.NotNil(t, pool.Get("camp-3"))

	// Reappearing in the inventory revives an unoccupied expired camp.
	require.NoError(t, Sync(pool, []*models.Camp{
		{Alias: "camp-1"},
		{Alias: "camp-2"},
		{Alias: "camp-3"},
	}))
	assert.Equal(t, models.CampAvailable, pool.Get("camp-2").Status)
}

func TestLoadInventory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`camps:
  - alias: camp-east
  - alias: camp-west
    expires_at: 2026-09-01T00:00:00Z
`), 0o644))

	camps, err := LoadInventory(path)
	require.NoError(t, err)
	require.Len(t, camps, 2)
	assert.Equal(t, "camp-east", camps[0].Alias)
	assert.Equal(t, models.CampAvailable, camps[0].Status)
	require.NotNil(t, camps[1].ExpiresAt)
}
