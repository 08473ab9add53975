package models

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Room is a secret-gated drawing space. SecretHash is never sent to clients.
type Room struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	AdminID    string    `json:"adminId"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChatRecord is one persisted drawing event. Message is the opaque shape.
type ChatRecord struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Store is the persistence gateway consumed by the router and the HTTP API.
type Store interface {
	CreateChatRecord(ctx context.Context, rec ChatRecord) (ChatRecord, error)
	DeleteChatRecords(ctx context.Context, roomID int64, message string) (int64, error)
	FindChatRecords(ctx context.Context, roomID int64) ([]ChatRecord, error)

	FindRoomBySlug(ctx context.Context, slug string) (Room, error)
	CreateRoom(ctx context.Context, room Room) (Room, error)

	CreateUser(ctx context.Context, user User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)

	Close() error
}
