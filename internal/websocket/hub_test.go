package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func TestHub_RegisterTwice(t *testing.T) {
	h := NewHub()
	conn := &mockConn{id: "c1"}

	require.True(t, h.Register(conn, "alice"))
	h.JoinRoom(conn, 1)

	assert.False(t, h.Register(conn, "mallory"))

	id, ok := h.Identity(conn)
	require.True(t, ok)
	assert.Equal(t, "alice", id)
	assert.Equal(t, []int64{1}, h.Rooms(conn))
}

func TestHub_JoinIdempotent(t *testing.T) {
	h := NewHub()
	conn := &mockConn{id: "c1"}
	h.Register(conn, "alice")

	h.JoinRoom(conn, 42)
	h.JoinRoom(conn, 42)

	assert.Equal(t, []int64{42}, h.Rooms(conn))
	assert.Len(t, h.MembersOf(42), 1)

	h.LeaveRoom(conn, 42)
	assert.Empty(t, h.Rooms(conn))
	assert.Empty(t, h.MembersOf(42))

	assert.True(t, h.LeaveRoom(conn, 42), "leaving a room not joined is a no-op")
}

func TestHub_UnregisteredConnection(t *testing.T) {
	h := NewHub()
	ghost := &mockConn{id: "ghost"}

	assert.False(t, h.JoinRoom(ghost, 1))
	assert.False(t, h.LeaveRoom(ghost, 1))
	assert.Empty(t, h.MembersOf(1))

	_, ok := h.Identity(ghost)
	assert.False(t, ok)
}

func TestHub_MembersOf(t *testing.T) {
	tests := []struct {
		name  string
		joins map[string][]int64
		room  int64
		want  []string
	}{
		{
			name:  "single member",
			joins: map[string][]int64{"a": {1}},
			room:  1,
			want:  []string{"a"},
		},
		{
			name:  "only matching room",
			joins: map[string][]int64{"a": {1}, "b": {2}, "c": {1, 2}},
			room:  1,
			want:  []string{"a", "c"},
		},
		{
			name:  "empty room",
			joins: map[string][]int64{"a": {1}},
			room:  7,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub()
			for id, rooms := range tt.joins {
				conn := &mockConn{id: id}
				h.Register(conn, "user-"+id)
				for _, r := range rooms {
					h.JoinRoom(conn, r)
				}
			}

			var got []string
			for _, c := range h.MembersOf(tt.room) {
				got = append(got, c.ID())
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	h := NewHub()
	conn := &mockConn{id: "c1"}
	other := &mockConn{id: "c2"}
	h.Register(conn, "alice")
	h.Register(other, "bob")
	h.JoinRoom(conn, 1)
	h.JoinRoom(conn, 2)
	h.JoinRoom(other, 2)

	require.True(t, h.Unregister(conn))
	assert.False(t, h.Unregister(conn))

	assert.Empty(t, h.MembersOf(1))
	assert.Equal(t, []Connection{other}, h.MembersOf(2))

	conns, rooms := h.Stats()
	assert.Equal(t, 1, conns)
	assert.Equal(t, 1, rooms)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn := &mockConn{id: string(rune('a' + n%26))}
			h.Register(conn, "u")
			h.JoinRoom(conn, int64(n%3))
			_ = h.MembersOf(int64(n % 3))
			h.Unregister(conn)
		}(i)
	}
	wg.Wait()

	conns, rooms := h.Stats()
	assert.Equal(t, 0, conns)
	assert.Equal(t, 0, rooms)
}
