package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"Inkwell/internal/models"
)

func serviceLogger() *slog.Logger { return slog.With("component", "gateway") }

// Server exposes a models.Store over gRPC.
type Server struct {
	store models.Store
}

var _ GatewayServer = (*Server)(nil)

func NewServer(store models.Store) *Server {
	serviceLogger().Info("Creating new gateway server instance")
	return &Server{store: store}
}

func (s *Server) CreateChatRecord(ctx context.Context, req *ChatRecord) (*ChatRecord, error) {
	rec, err := s.store.CreateChatRecord(ctx, req.model())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toChatRecord(rec)
	return &out, nil
}

func (s *Server) DeleteChatRecords(ctx context.Context, req *DeleteChatsRequest) (*wrapperspb.Int64Value, error) {
	n, err := s.store.DeleteChatRecords(ctx, req.RoomID, req.Message)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(n), nil
}

func (s *Server) FindChatRecords(ctx context.Context, req *wrapperspb.Int64Value) (*ChatRecords, error) {
	records, err := s.store.FindChatRecords(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out := &ChatRecords{Records: make([]ChatRecord, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, toChatRecord(r))
	}
	return out, nil
}

func (s *Server) FindRoomBySlug(ctx context.Context, req *wrapperspb.StringValue) (*Room, error) {
	room, err := s.store.FindRoomBySlug(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRoom(room)
	return &out, nil
}

func (s *Server) CreateRoom(ctx context.Context, req *Room) (*Room, error) {
	if req.Slug == "" || req.SecretHash == "" {
		return nil, status.Error(codes.InvalidArgument, "slug and secret are required")
	}
	room, err := s.store.CreateRoom(ctx, req.model())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRoom(room)
	return &out, nil
}

func (s *Server) CreateUser(ctx context.Context, req *User) (*User, error) {
	user, err := s.store.CreateUser(ctx, req.model())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toUser(user)
	return &out, nil
}

func (s *Server) FindUserByEmail(ctx context.Context, req *wrapperspb.StringValue) (*User, error) {
	user, err := s.store.FindUserByEmail(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toUser(user)
	return &out, nil
}

func (s *Server) FindUserByID(ctx context.Context, req *wrapperspb.StringValue) (*User, error) {
	user, err := s.store.FindUserByID(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out := toUser(user)
	return &out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	serviceLogger().Error("store error", "error", err)
	return status.Error(codes.Internal, "database error")
}

// LoggingInterceptor logs every unary call with its duration. Payloads are
// not logged since they carry password and secret hashes.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start)
	if err != nil {
		serviceLogger().Warn("gRPC request failed",
			"method", info.FullMethod,
			"duration", duration,
			"code", status.Code(err),
			"error", err)
	} else {
		serviceLogger().Debug("gRPC request completed",
			"method", info.FullMethod,
			"duration", duration)
	}

	return resp, err
}
