package kvstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilmark/soulbench/common"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testContract(id, holder string) common.SoulContract {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return common.SoulContract{
		ID:         id,
		SoulName:   "Faust " + id,
		HolderName: holder,
		Clause:     "eternal servitude, renewable",
		Price:      666.50,
		Status:     common.StatusActive,
		SignedAt:   now,
		UpdatedAt:  now,
	}
}

func TestCreateGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testContract("c1", "mephisto")
	require.NoError(t, s.Create(ctx, c))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCreateDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testContract("c1", "mephisto")
	require.NoError(t, s.Create(ctx, c))
	assert.ErrorIs(t, s.Create(ctx, c), common.ErrContractExists)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrContractNotFound)
}

func TestEmptyID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrEmptyID)
}

func TestUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testContract("c1", "mephisto")
	require.NoError(t, s.Create(ctx, c))

	c.Status = common.StatusFulfilled
	c.Price = 1000
	require.NoError(t, s.Update(ctx, c))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, common.StatusFulfilled, got.Status)
	assert.Equal(t, 1000.0, got.Price)
}

func TestUpdateMissing(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(context.Background(), testContract("ghost", "nobody"))
	assert.ErrorIs(t, err, common.ErrContractNotFound)
}

func TestUpdateMovesHolderIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testContract("c1", "mephisto")
	require.NoError(t, s.Create(ctx, c))

	c.HolderName = "beelzebub"
	require.NoError(t, s.Update(ctx, c))

	old, err := s.ListByHolder(ctx, "mephisto")
	require.NoError(t, err)
	assert.Empty(t, old)

	moved, err := s.ListByHolder(ctx, "beelzebub")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "c1", moved[0].ID)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testContract("c1", "mephisto")))
	require.NoError(t, s.Delete(ctx, "c1"))

	_, err := s.Get(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrContractNotFound)

	held, err := s.ListByHolder(ctx, "mephisto")
	require.NoError(t, err)
	assert.Empty(t, held)

	assert.ErrorIs(t, s.Delete(ctx, "c1"), common.ErrContractNotFound)
}

func TestListByHolder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testContract("c1", "mephisto")))
	require.NoError(t, s.Create(ctx, testContract("c2", "mephisto")))
	require.NoError(t, s.Create(ctx, testContract("c3", "beelzebub")))

	held, err := s.ListByHolder(ctx, "mephisto")
	require.NoError(t, err)
	assert.Len(t, held, 2)

	none, err := s.ListByHolder(ctx, "asmodeus")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTotalsByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := testContract("c1", "mephisto")
	a.Price = 100
	b := testContract("c2", "mephisto")
	b.Price = 50
	c := testContract("c3", "beelzebub")
	c.Price = 10
	c.Status = common.StatusVoided

	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))
	require.NoError(t, s.Create(ctx, c))

	totals, err := s.TotalsByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, common.StatusActive, totals[0].Status)
	assert.Equal(t, int64(2), totals[0].Count)
	assert.InDelta(t, 150, totals[0].TotalPrice, 1e-9)

	assert.Equal(t, common.StatusVoided, totals[1].Status)
	assert.Equal(t, int64(1), totals[1].Count)
}

func TestCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Create(ctx, testContract("c1", "mephisto")))
	require.NoError(t, s.Create(ctx, testContract("c2", "mephisto")))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestConcurrentUpdatesOnContendedKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A handful of keys hammered by many writers forces transaction
	// conflicts; every update must still succeed via the retry loop.
	const keys = 4
	for i := 0; i < keys; i++ {
		require.NoError(t, s.Create(ctx, testContract(fmt.Sprintf("c%d", i), "mephisto")))
	}

	var failed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c := testContract(fmt.Sprintf("c%d", (w+i)%keys), "mephisto")
				c.Price = float64(w*1000 + i)
				if err := s.Update(ctx, c); err != nil {
					failed.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, failed.Load())
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), "c1")
	assert.ErrorIs(t, err, common.ErrStoreClosed)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, testContract("c1", "mephisto")))
	require.NoError(t, s.Close())

	s2, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
}
