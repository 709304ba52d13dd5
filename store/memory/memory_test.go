package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
	"github.com/greenround/visit-engine/store/memory"
)

func TestStore_CompareAndSwap(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	saved, err := store.Save(ctx, lawncare.Subscription{CustomerID: "cus_1", Plan: lawncare.PlanTwiceWeekly, Status: lawncare.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Revision)

	var q lawncare.OverrideQueue
	q[0] = lawncare.Override{Active: true, Cancelled: true, OriginalDate: generic.NewDate(2024, time.January, 8, time.UTC)}

	updated, err := store.UpdateOverrides(ctx, "cus_1", 1, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)

	_, err = store.UpdateOverrides(ctx, "cus_1", 1, q)
	assert.True(t, generic.IsConflict(err))

	_, err = store.UpdateOverrides(ctx, "nope", 1, q)
	assert.ErrorIs(t, err, lawncare.ErrSubscriptionNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	// Mutating a returned record must not leak into the store.
	store := memory.New()
	ctx := context.Background()

	_, err := store.Save(ctx, lawncare.Subscription{CustomerID: "cus_1", Plan: lawncare.PlanTwiceWeekly})
	require.NoError(t, err)

	var q lawncare.OverrideQueue
	q[0] = lawncare.Override{Active: true, EffectiveDate: generic.NewDate(2024, time.January, 9, time.UTC), IconOverrideActive: true, CustomFeatures: &lawncare.FeatureSet{Repair: true}}
	_, err = store.UpdateOverrides(ctx, "cus_1", 1, q)
	require.NoError(t, err)

	got, err := store.Get(ctx, "cus_1")
	require.NoError(t, err)
	got.Overrides[0].CustomFeatures.Repair = false

	again, err := store.Get(ctx, "cus_1")
	require.NoError(t, err)
	assert.True(t, again.Overrides[0].CustomFeatures.Repair)
}

func TestStore_ListOrdered(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for _, id := range []string{"cus_c", "cus_a", "cus_b"} {
		_, err := store.Save(ctx, lawncare.Subscription{CustomerID: id})
		require.NoError(t, err)
	}

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "cus_a", subs[0].CustomerID)
	assert.Equal(t, "cus_c", subs[2].CustomerID)
}
