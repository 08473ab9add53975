package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"Inkwell/internal/models"
)

// Memory is an in-process store used for local runs without Postgres.
// Contents are lost on restart.
type Memory struct {
	mu       sync.Mutex
	chats    []models.ChatRecord
	rooms    map[string]models.Room
	users    map[string]models.User
	nextChat int64
	nextRoom int64
}

var _ models.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string]models.Room),
		users: make(map[string]models.User),
	}
}

func (m *Memory) CreateChatRecord(_ context.Context, rec models.ChatRecord) (models.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextChat++
	rec.ID = m.nextChat
	rec.CreatedAt = time.Now()
	m.chats = append(m.chats, rec)
	return rec, nil
}

func (m *Memory) DeleteChatRecords(_ context.Context, roomID int64, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chats[:0]
	var removed int64
	for _, rec := range m.chats {
		if rec.RoomID == roomID && rec.Message == message {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.chats = kept
	return removed, nil
}

func (m *Memory) FindChatRecords(_ context.Context, roomID int64) ([]models.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []models.ChatRecord
	for i := len(m.chats) - 1; i >= 0; i-- {
		if m.chats[i].RoomID == roomID {
			records = append(records, m.chats[i])
		}
	}
	return records, nil
}

func (m *Memory) FindRoomBySlug(_ context.Context, slug string) (models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[slug]
	if !ok {
		return models.Room{}, models.ErrNotFound
	}
	return room, nil
}

func (m *Memory) CreateRoom(_ context.Context, room models.Room) (models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[room.Slug]; exists {
		return models.Room{}, models.ErrConflict
	}
	m.nextRoom++
	room.ID = m.nextRoom
	room.CreatedAt = time.Now()
	m.rooms[room.Slug] = room
	return room, nil
}

func (m *Memory) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return models.User{}, models.ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *Memory) Close() error { return nil }
