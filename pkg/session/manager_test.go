package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rayied/cora/pkg/models"
)

func TestGetOrCreate_EmptyIDAllocatesFreshSession(t *testing.T) {
	m := New(30*time.Minute, 20)
	s, isNew := m.GetOrCreate("")
	require.True(t, isNew)
	require.NotEmpty(t, s.ID)
}

func TestGetOrCreate_UnknownIDAllocatesFreshSession(t *testing.T) {
	m := New(30*time.Minute, 20)
	s, isNew := m.GetOrCreate("does-not-exist")
	require.True(t, isNew)
	require.NotEqual(t, "does-not-exist", s.ID)
}

func TestGetOrCreate_KnownLiveIDReturnsSameSession(t *testing.T) {
	m := New(30*time.Minute, 20)
	s1, _ := m.GetOrCreate("")
	s2, isNew := m.GetOrCreate(s1.ID)
	require.False(t, isNew)
	require.Equal(t, s1.ID, s2.ID)
}

func TestGetOrCreate_ExpiredSessionIsReplaced(t *testing.T) {
	m := New(10*time.Millisecond, 20)
	s1, _ := m.GetOrCreate("")
	time.Sleep(20 * time.Millisecond)

	s2, isNew := m.GetOrCreate(s1.ID)
	require.True(t, isNew)
	require.NotEqual(t, s1.ID, s2.ID)
}

func TestAppendExchange_UpdatesTurnsAndLastSeen(t *testing.T) {
	m := New(30*time.Minute, 20)
	s, _ := m.GetOrCreate("")

	m.AppendExchange(s.ID, "hello", "hi there")

	turns := m.History(s.ID, 20)
	require.Len(t, turns, 2)
	require.Equal(t, models.RoleUser, turns[0].Role)
	require.Equal(t, models.RoleAssistant, turns[1].Role)
}

func TestHistory_TruncatesToMaxTurns(t *testing.T) {
	m := New(30*time.Minute, 20)
	s, _ := m.GetOrCreate("")

	for i := 0; i < 5; i++ {
		m.AppendExchange(s.ID, "q", "a")
	}

	turns := m.History(s.ID, 2)
	require.Len(t, turns, 4)
}

func TestAppendExchange_ConcurrentCallsNeverInterleaveHalfTurns(t *testing.T) {
	m := New(30*time.Minute, 1000)
	s, _ := m.GetOrCreate("")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			m.AppendExchange(s.ID, "q", "a")
		}()
	}
	wg.Wait()

	turns := m.History(s.ID, 1000)
	require.Len(t, turns, 2*n)
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, models.RoleUser, turns[i].Role)
		require.Equal(t, models.RoleAssistant, turns[i+1].Role)
	}
}

func TestSweep_RemovesOnlyExpiredSessions(t *testing.T) {
	m := New(10*time.Millisecond, 20)
	stale, _ := m.GetOrCreate("")
	time.Sleep(20 * time.Millisecond)
	fresh, _ := m.GetOrCreate("")

	removed := m.Sweep()
	require.Equal(t, 1, removed)
	require.Equal(t, 1, m.Count())

	_, isNew := m.GetOrCreate(fresh.ID)
	require.False(t, isNew)
	_, isNew = m.GetOrCreate(stale.ID)
	require.True(t, isNew)
}
