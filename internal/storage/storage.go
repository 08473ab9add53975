package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Inkwell/internal/models"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Storage is the Postgres backed persistence gateway.
type Storage struct {
	db *sql.DB
}

var _ models.Store = (*Storage)(nil)

func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Storage) CreateChatRecord(ctx context.Context, rec models.ChatRecord) (models.ChatRecord, error) {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO chats (room_id, user_id, message) VALUES ($1, $2, $3) RETURNING id, created_at",
		rec.RoomID, rec.UserID, rec.Message,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return models.ChatRecord{}, fmt.Errorf("insert chat: %w", err)
	}
	return rec, nil
}

func (s *Storage) DeleteChatRecords(ctx context.Context, roomID int64, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM chats WHERE room_id = $1 AND message = $2",
		roomID, message,
	)
	if err != nil {
		return 0, fmt.Errorf("delete chats: %w", err)
	}
	return res.RowsAffected()
}

func (s *Storage) FindChatRecords(ctx context.Context, roomID int64) ([]models.ChatRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, room_id, user_id, message, created_at FROM chats WHERE room_id = $1 ORDER BY id DESC",
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var records []models.ChatRecord
	for rows.Next() {
		var r models.ChatRecord
		if err := rows.Scan(&r.ID, &r.RoomID, &r.UserID, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Storage) FindRoomBySlug(ctx context.Context, slug string) (models.Room, error) {
	var r models.Room
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, admin_id, secret, created_at FROM rooms WHERE slug = $1",
		slug,
	).Scan(&r.ID, &r.Slug, &r.AdminID, &r.SecretHash, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, models.ErrNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("query room: %w", err)
	}
	return r, nil
}

func (s *Storage) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO rooms (slug, admin_id, secret) VALUES ($1, $2, $3) RETURNING id, created_at",
		room.Slug, room.AdminID, room.SecretHash,
	).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return models.Room{}, classify("insert room", err)
	}
	return room, nil
}

func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, $4)",
		user.ID, user.Name, user.Email, user.PasswordHash,
	)
	if err != nil {
		return models.User{}, classify("insert user", err)
	}
	return user, nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, "SELECT id, name, email, password FROM users WHERE email = $1", email)
}

func (s *Storage) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, "SELECT id, name, email, password FROM users WHERE id = $1", id)
}

func (s *Storage) findUser(ctx context.Context, query, arg string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
