package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
	"github.com/greenround/visit-engine/notify"
	"github.com/greenround/visit-engine/store/memory"
)

func testEvent(reason lawncare.ChangeReason) lawncare.ChangeEvent {
	var q lawncare.OverrideQueue
	q[0] = lawncare.Override{Active: true, Cancelled: true, OriginalDate: generic.NewDate(2024, time.January, 8, time.UTC)}
	return lawncare.ChangeEvent{
		ID:         "evt-1",
		CustomerID: "cus_1",
		Reason:     reason,
		Revision:   4,
		Subscription: lawncare.Subscription{
			CustomerID: "cus_1",
			Plan:       lawncare.PlanTwiceWeekly,
			Status:     lawncare.StatusActive,
			Overrides:  q,
			Revision:   4,
		},
		OccurredAt: time.Date(2024, time.January, 9, 8, 0, 0, 0, time.UTC),
	}
}

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := notify.NewBroadcaster()
	first, cancelFirst := b.Subscribe(4)
	second, cancelSecond := b.Subscribe(4)
	defer cancelSecond()

	require.NoError(t, b.Notify(context.Background(), testEvent(lawncare.ChangeAdvanced)))

	assert.Equal(t, "evt-1", (<-first).ID)
	assert.Equal(t, "evt-1", (<-second).ID)

	cancelFirst()
	_, open := <-first
	assert.False(t, open, "cancel closes the channel")
	cancelFirst()

	require.NoError(t, b.Notify(context.Background(), testEvent(lawncare.ChangeEdited)))
	assert.Equal(t, lawncare.ChangeEdited, (<-second).Reason)
}

func TestBroadcaster_FullBufferDrops(t *testing.T) {
	// GIVEN: A subscriber that never reads
	// WHEN: More events than its buffer arrive
	// THEN: Notify never blocks and the overflow is counted

	b := notify.NewBroadcaster()
	_, cancel := b.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Notify(context.Background(), testEvent(lawncare.ChangeAdvanced)))
	}
	assert.Equal(t, int64(2), b.Dropped())
}

type failing struct{ err error }

func (f failing) Notify(context.Context, lawncare.ChangeEvent) error { return f.err }

func TestFanout_JoinsErrors(t *testing.T) {
	boom := errors.New("broker unavailable")
	b := notify.NewBroadcaster()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	err := notify.Fanout{failing{boom}, nil, b}.Notify(context.Background(), testEvent(lawncare.ChangeEdited))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "cus_1", (<-ch).CustomerID, "later notifiers still run")
}

func TestChangeMessage(t *testing.T) {
	msg := notify.NewChangeMessage(testEvent(lawncare.ChangeAdvanced))

	assert.Equal(t, "subscription.overrides.advanced", notify.RoutingKey(lawncare.ChangeAdvanced))
	assert.Equal(t, "twice_weekly", msg.Plan)
	assert.Equal(t, int64(4), msg.Revision)
	require.Len(t, msg.Overrides, lawncare.QueueSize)
	assert.True(t, msg.Overrides[0].Cancelled)

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"reason":"advanced"`)
	assert.Contains(t, string(body), `"original_date":1704672000`)
}

func TestNewRabbitMQ_RejectsBadScheme(t *testing.T) {
	_, err := notify.NewRabbitMQ("http://localhost:5672", "subscriptions")
	assert.Error(t, err)
}

func TestBroadcaster_ReceivesServiceAdvance(t *testing.T) {
	// GIVEN: A subscriber on the broadcaster the service notifies
	// WHEN: A read on Thu 2024-01-11 expires a head slot cancelling Wed 01-10
	// THEN: The subscriber receives exactly one "advanced" event

	ctx := context.Background()
	store := memory.New()
	saved, err := store.Save(ctx, lawncare.Subscription{
		CustomerID: "cus_1",
		Plan:       lawncare.PlanOnceWeekly,
		PlanStart:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:     lawncare.StatusActive,
	})
	require.NoError(t, err)

	var q lawncare.OverrideQueue
	q[0] = lawncare.Override{Active: true, Cancelled: true, OriginalDate: generic.NewDate(2024, time.January, 10, time.UTC)}
	seeded, err := store.UpdateOverrides(ctx, "cus_1", saved.Revision, q)
	require.NoError(t, err)

	b := notify.NewBroadcaster()
	ch, cancel := b.Subscribe(4)
	defer cancel()

	svc := lawncare.NewService(store, notify.Fanout{b}, time.UTC, zerolog.Nop())
	svc.Clock = func() time.Time { return time.Date(2024, time.January, 11, 10, 0, 0, 0, time.UTC) }

	schedule, err := svc.NextOccurrence(ctx, "cus_1")
	require.NoError(t, err)
	require.True(t, schedule.Advanced)

	event := <-ch
	assert.Equal(t, lawncare.ChangeAdvanced, event.Reason)
	assert.Equal(t, seeded.Revision+1, event.Revision)
	assert.Equal(t, lawncare.OverrideQueue{}, event.Subscription.Overrides)
	assert.Len(t, ch, 0)
}
