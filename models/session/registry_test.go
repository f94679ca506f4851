package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

func TestRegistry_CreateAndList(t *testing.T) {
	r := NewRegistry()

	id1, err := r.CreateSession(11, 18)
	require.NoError(t, err)
	id2, err := r.CreateSession(5, 5)
	require.NoError(t, err)

	assert.Len(t, id1, sessionIdLength)
	assert.NotEqual(t, id1, id2)
	assert.ElementsMatch(t, []string{id1, id2}, r.ListSessions())

	snap, err := r.Snapshot(id1)
	require.NoError(t, err)
	assert.Equal(t, 11, snap.Height)
	assert.Equal(t, 18, snap.Width)
	assert.Equal(t, "waiting_for_players", snap.State.Name)
}

func TestRegistry_CreateInvalidDimensions(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateSession(0, 3)
	assert.ErrorIs(t, err, cerr.ErrInvalidDimensions)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_CreateOversizedBoard(t *testing.T) {
	tests := []struct {
		name          string
		height, width int
		wantErr       bool
	}{
		{"at the cap", 20, 30, false},
		{"too tall", 21, 30, true},
		{"too wide", 20, 31, true},
		{"huge", 1 << 40, 1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry(WithMaxBoard(20, 30))
			_, err := r.CreateSession(tc.height, tc.width)
			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, 1, r.Len())
				return
			}
			assert.ErrorIs(t, err, cerr.ErrInvalidDimensions)
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestRegistry_DefaultMaxBoard(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateSession(DefaultMaxBoardHeight+1, 1)
	assert.ErrorIs(t, err, cerr.ErrInvalidDimensions)
}

func TestRegistry_IdCollision(t *testing.T) {
	ids := []string{"aaaaaa", "aaaaaa", "aaaaaa", "bbbbbb"}
	var i int
	r := NewRegistry(WithIdGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))

	first, err := r.CreateSession(3, 3)
	require.NoError(t, err)
	second, err := r.CreateSession(3, 3)
	require.NoError(t, err)

	assert.Equal(t, "aaaaaa", first)
	assert.Equal(t, "bbbbbb", second)
}

func TestRegistry_GetSessionNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetSession("nope")
	assert.ErrorIs(t, err, cerr.ErrNotFound)

	_, err = r.Apply("nope", Start{})
	assert.ErrorIs(t, err, cerr.ErrNotFound)

	_, err = r.Subscribe("nope")
	assert.ErrorIs(t, err, cerr.ErrNotFound)

	assert.ErrorIs(t, r.RemoveSession("nope"), cerr.ErrNotFound)
}

func TestRegistry_RemoveSessionDetachesSubscribers(t *testing.T) {
	r := NewRegistry(WithSubscriberBuffer(8))
	id, err := r.CreateSession(4, 4)
	require.NoError(t, err)

	sub, err := r.Subscribe(id)
	require.NoError(t, err)

	require.NoError(t, r.RemoveSession(id))

	_, err = r.GetSession(id)
	assert.ErrorIs(t, err, cerr.ErrNotFound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = sub.Next(ctx)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestRegistry_ScenarioThroughRegistry(t *testing.T) {
	r := NewRegistry()
	id, err := r.CreateSession(11, 18)
	require.NoError(t, err)

	_, err = r.Apply(id, AddPlayer{Name: "Tim", Token: "cookie1"})
	require.NoError(t, err)
	_, err = r.Apply(id, AddPlayer{Name: "Avi", Token: "cookie2"})
	require.NoError(t, err)
	_, err = r.Apply(id, Start{})
	require.NoError(t, err)

	_, err = r.Apply(id, Fire{Token: "cookie2", Row: 0, Col: 0})
	assert.ErrorIs(t, err, cerr.ErrNotYourTurn)

	_, err = r.Apply(id, Fire{Token: "cookie1", Row: 5, Col: 5})
	require.NoError(t, err)

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	assert.True(t, snap.Cells[5][5].Revealed)
	require.NotNil(t, snap.State.NextTurn)
	assert.EqualValues(t, 1, *snap.State.NextTurn)

	_, err = r.Apply(id, AddPlayer{Name: "Late", Token: "cookie3"})
	assert.ErrorIs(t, err, cerr.ErrInvalidState)
	snap, _ = r.Snapshot(id)
	assert.Len(t, snap.Players, 2)
}

func TestRegistry_ConcurrentSessions(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.CreateSession(4, 4)
			if !assert.NoError(t, err) {
				return
			}
			_, err = r.Apply(id, AddPlayer{Name: "a", Token: "a"})
			assert.NoError(t, err)
			_, err = r.Apply(id, AddPlayer{Name: "b", Token: "b"})
			assert.NoError(t, err)
			_, err = r.Apply(id, Start{})
			assert.NoError(t, err)
			_ = r.ListSessions()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}

func TestRegistry_Cleanup(t *testing.T) {
	r := NewRegistry()
	idle, err := r.CreateSession(3, 3)
	require.NoError(t, err)
	sub, err := r.Subscribe(idle)
	require.NoError(t, err)

	removed := r.cleanup(time.Now(), time.Hour)
	assert.Empty(t, removed)

	removed = r.cleanup(time.Now().Add(2*time.Hour), time.Hour)
	assert.Equal(t, []string{idle}, removed)
	assert.Equal(t, 0, r.Len())

	select {
	case <-sub.Done():
	default:
		t.Fatal("cleanup must detach subscribers")
	}
}

func TestRegistry_CleanupPeriodicallyStops(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.CleanupPeriodically(ctx, 5*time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop on context cancel")
	}
}
