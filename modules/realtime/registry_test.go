package realtime

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestRegistry_JoinLeaveSequence(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Join("A", "D1"))
	assert.True(t, r.Join("B", "D1"))
	assert.True(t, r.Leave("A", "D1"))

	assert.Equal(t, []string{"B"}, r.MembersOf("D1"))
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Join("A", "D1"))
	assert.False(t, r.Join("A", "D1"))
	assert.Equal(t, []string{"A"}, r.MembersOf("D1"))

	rooms, members := r.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, members)
}

func TestRegistry_LeaveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Leave("A", "D1"))
	r.Join("A", "D1")
	assert.False(t, r.Leave("B", "D1"))
	assert.Equal(t, []string{"A"}, r.MembersOf("D1"))
}

func TestRegistry_EmptyRoomIsDiscarded(t *testing.T) {
	r := NewRegistry()

	r.Join("A", "D1")
	r.Leave("A", "D1")

	assert.Empty(t, r.MembersOf("D1"))
	rooms, members := r.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, members)
}

func TestRegistry_RejectsEmptyIDs(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Join("", "D1"))
	assert.False(t, r.Join("A", ""))
	rooms, _ := r.Stats()
	assert.Zero(t, rooms)
}

func TestRegistry_LeaveAllAcrossRooms(t *testing.T) {
	r := NewRegistry()

	r.Join("A", "D1")
	r.Join("A", "D2")
	r.Join("B", "D2")

	left := r.LeaveAll("A")

	assert.Equal(t, []string{"D1", "D2"}, sorted(left))
	assert.Empty(t, r.MembersOf("D1"))
	assert.Equal(t, []string{"B"}, r.MembersOf("D2"))
	assert.Empty(t, r.RoomsOf("A"))
	assert.False(t, r.IsMember("A", "D2"))
}

func TestRegistry_MembersOfIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("A", "D1")

	members := r.MembersOf("D1")
	r.Join("B", "D1")

	assert.Equal(t, []string{"A"}, members)
	assert.Equal(t, []string{"A", "B"}, sorted(r.MembersOf("D1")))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := fmt.Sprintf("conn-%d", i)
			room := fmt.Sprintf("D%d", i%5)
			r.Join(conn, room)
			_ = r.MembersOf(room)
			if i%2 == 0 {
				r.LeaveAll(conn)
			}
		}(i)
	}
	wg.Wait()

	_, members := r.Stats()
	assert.Equal(t, 25, members)
}
