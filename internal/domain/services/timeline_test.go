package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
	"github.com/chrisyuska/paper-trail/internal/domain/mocks"
	"github.com/chrisyuska/paper-trail/internal/infrastructure/codec"
)

var timelineBase = time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

func savedVersion(t *testing.T, store *mocks.VersionStore, id string, event entities.EventKind, whodunnit string, createdAt time.Time, snapshot map[string]any) *entities.Version {
	t.Helper()
	v := &entities.Version{
		ID:        id,
		ItemType:  "Widget",
		ItemID:    "w-1",
		Event:     event,
		Whodunnit: whodunnit,
		CreatedAt: createdAt,
	}
	if snapshot != nil {
		data, err := codec.JSON{}.MarshalAttributes(snapshot)
		require.NoError(t, err)
		v.Snapshot = data
	}
	require.NoError(t, store.SaveVersion(context.Background(), v))
	return v
}

// widgetHistory seeds the store with create(t0), update(t1, pre-state a),
// update(t2, pre-state b) for Widget/w-1.
func widgetHistory(t *testing.T, store *mocks.VersionStore) (v1, v2, v3 *entities.Version) {
	t.Helper()
	v1 = savedVersion(t, store, "v-1", entities.EventCreate, "alice", timelineBase, nil)
	v2 = savedVersion(t, store, "v-2", entities.EventUpdate, "bob", timelineBase.Add(time.Hour),
		map[string]any{"name": "a"})
	v3 = savedVersion(t, store, "v-3", entities.EventUpdate, "carol", timelineBase.Add(2*time.Hour),
		map[string]any{"name": "b"})
	return v1, v2, v3
}

func liveWidget() *entities.Record {
	rec := entities.NewRecord("Widget", "w-1", "name")
	rec.Attrs["name"] = "c"
	rec.MarkPersisted()
	return rec
}

func TestTimeline_Reify(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewVersionStore()
	timeline := NewTimeline(store, codec.JSON{}, nil)

	snapshot := map[string]any{"name": "b", "qty": float64(2)}
	v := savedVersion(t, store, "v-1", entities.EventUpdate, "alice", timelineBase, snapshot)

	state, err := timeline.Reify(ctx, v)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, "Widget", state.ItemType())
	assert.Equal(t, "w-1", state.ItemID())
	assert.Equal(t, snapshot, state.Attributes(), "round-trip through the codec is lossless")
	assert.Equal(t, []string{"name", "qty"}, state.AttributeNames())
	assert.Same(t, v, state.SourceVersion())
	assert.False(t, state.Persisted(), "a reified state masquerades as a new record")

	t.Run("snapshot-less version reifies to nil", func(t *testing.T) {
		create := savedVersion(t, store, "v-2", entities.EventCreate, "alice", timelineBase, nil)
		state, err := timeline.Reify(ctx, create)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("nil version reifies to nil", func(t *testing.T) {
		state, err := timeline.Reify(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("corrupt snapshot is an error", func(t *testing.T) {
		bad := &entities.Version{ID: "v-x", ItemType: "Widget", ItemID: "w-1", Snapshot: []byte("{")}
		_, err := timeline.Reify(ctx, bad)
		assert.Error(t, err)
	})
}

func TestTimeline_Originator(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewVersionStore()
	timeline := NewTimeline(store, codec.JSON{}, nil)
	_, v2, _ := widgetHistory(t, store)

	t.Run("live record reports the latest version's actor", func(t *testing.T) {
		who, err := timeline.Originator(ctx, liveWidget())
		require.NoError(t, err)
		assert.Equal(t, "carol", who)
	})

	t.Run("reified record reports its source version's actor", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v2)
		require.NoError(t, err)
		who, err := timeline.Originator(ctx, state)
		require.NoError(t, err)
		assert.Equal(t, "bob", who)
	})

	t.Run("no versions means no originator", func(t *testing.T) {
		unknown := entities.NewRecord("Widget", "w-404")
		who, err := timeline.Originator(ctx, unknown)
		require.NoError(t, err)
		assert.Empty(t, who)
	})
}

func TestTimeline_PreviousVersion(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewVersionStore()
	timeline := NewTimeline(store, codec.JSON{}, nil)
	_, v2, v3 := widgetHistory(t, store)

	t.Run("live record steps back to the latest version's snapshot", func(t *testing.T) {
		state, err := timeline.PreviousVersion(ctx, liveWidget())
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "b", state.Attribute("name"))
		assert.Equal(t, v3.ID, state.SourceVersion().ID)
	})

	t.Run("reified record steps back one version", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v3)
		require.NoError(t, err)
		prev, err := timeline.PreviousVersion(ctx, state)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "a", prev.Attribute("name"))
	})

	t.Run("stepping past the beginning yields nil", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v2)
		require.NoError(t, err)
		prev, err := timeline.PreviousVersion(ctx, state)
		require.NoError(t, err)
		assert.Nil(t, prev, "v-1 is a snapshot-less create version")
	})
}

func TestTimeline_NextVersion(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewVersionStore()
	loader := mocks.NewRecordLoader()
	loader.Add(liveWidget())
	timeline := NewTimeline(store, codec.JSON{}, loader)
	_, v2, v3 := widgetHistory(t, store)

	t.Run("steps forward one version", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v2)
		require.NoError(t, err)
		next, err := timeline.NextVersion(ctx, state)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "b", next.Attribute("name"))
	})

	t.Run("past the most recent version falls back to the live record", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v3)
		require.NoError(t, err)
		next, err := timeline.NextVersion(ctx, state)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "c", next.Attribute("name"))
	})

	t.Run("live-record lookup failure yields nil, not an error", func(t *testing.T) {
		loader.Err = assert.AnError
		defer func() { loader.Err = nil }()

		state, err := timeline.Reify(ctx, v3)
		require.NoError(t, err)
		next, err := timeline.NextVersion(ctx, state)
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("store failure yields nil, not an error", func(t *testing.T) {
		state, err := timeline.Reify(ctx, v3)
		require.NoError(t, err)

		store.Err = assert.AnError
		defer func() { store.Err = nil }()
		next, err := timeline.NextVersion(ctx, state)
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("a live record has no next version", func(t *testing.T) {
		next, err := timeline.NextVersion(ctx, liveWidget())
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestTimeline_VersionAt(t *testing.T) {
	ctx := context.Background()

	t.Run("between two versions picks the first version after the time", func(t *testing.T) {
		store := mocks.NewVersionStore()
		timeline := NewTimeline(store, codec.JSON{}, nil)
		widgetHistory(t, store)

		// Between v2 (t+1h) and v3 (t+2h) the state is v3's pre-change state.
		state, err := timeline.VersionAt(ctx, "Widget", "w-1", timelineBase.Add(90*time.Minute))
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "b", state.Attribute("name"))
	})

	t.Run("before the earliest version returns the live record", func(t *testing.T) {
		store := mocks.NewVersionStore()
		loader := mocks.NewRecordLoader()
		loader.Add(liveWidget())
		timeline := NewTimeline(store, codec.JSON{}, loader)
		// Only a snapshot-less create version exists after the probe time.
		savedVersion(t, store, "v-1", entities.EventCreate, "alice", timelineBase, nil)

		state, err := timeline.VersionAt(ctx, "Widget", "w-1", timelineBase.Add(-time.Hour))
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "c", state.Attribute("name"))
	})

	t.Run("after the last version returns the live record", func(t *testing.T) {
		store := mocks.NewVersionStore()
		loader := mocks.NewRecordLoader()
		loader.Add(liveWidget())
		timeline := NewTimeline(store, codec.JSON{}, loader)
		widgetHistory(t, store)

		state, err := timeline.VersionAt(ctx, "Widget", "w-1", timelineBase.Add(3*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "c", state.Attribute("name"))
	})

	t.Run("destroyed item has no valid state past its history", func(t *testing.T) {
		store := mocks.NewVersionStore()
		loader := mocks.NewRecordLoader()
		loader.Add(liveWidget())
		timeline := NewTimeline(store, codec.JSON{}, loader)
		widgetHistory(t, store)
		savedVersion(t, store, "v-4", entities.EventDestroy, "dave", timelineBase.Add(3*time.Hour),
			map[string]any{"name": "c"})

		state, err := timeline.VersionAt(ctx, "Widget", "w-1", timelineBase.Add(4*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, state)
	})
}

func TestTimeline_VersionsBetween(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewVersionStore()
	timeline := NewTimeline(store, codec.JSON{}, nil)
	widgetHistory(t, store)

	t.Run("returns reconstructed states in order over (start, end]", func(t *testing.T) {
		states, err := timeline.VersionsBetween(ctx, "Widget", "w-1",
			timelineBase.Add(time.Minute), timelineBase.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, states, 2)
		assert.Equal(t, "a", states[0].Attribute("name"))
		assert.Equal(t, "b", states[1].Attribute("name"))
	})

	t.Run("start bound is exclusive, end bound inclusive", func(t *testing.T) {
		states, err := timeline.VersionsBetween(ctx, "Widget", "w-1",
			timelineBase.Add(time.Hour), timelineBase.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, states, 1)
		assert.Equal(t, "b", states[0].Attribute("name"))
	})

	t.Run("snapshot-less create versions are skipped", func(t *testing.T) {
		states, err := timeline.VersionsBetween(ctx, "Widget", "w-1",
			timelineBase.Add(-time.Hour), timelineBase.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, states)
	})

	t.Run("empty window yields nothing", func(t *testing.T) {
		states, err := timeline.VersionsBetween(ctx, "Widget", "w-1",
			timelineBase.Add(5*time.Hour), timelineBase.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, states)
	})
}
