package gateway

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"Inkwell/internal/models"
)

const ServiceName = "inkwell.gateway.v1.Gateway"

// Wire types. Unlike the models they carry secret and password hashes.

type ChatRecord struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatRecords struct {
	Records []ChatRecord `json:"records"`
}

type DeleteChatsRequest struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

type Room struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	AdminID    string    `json:"adminId"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdAt"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// GatewayServer is the server side of the persistence gateway.
type GatewayServer interface {
	CreateChatRecord(context.Context, *ChatRecord) (*ChatRecord, error)
	DeleteChatRecords(context.Context, *DeleteChatsRequest) (*wrapperspb.Int64Value, error)
	FindChatRecords(context.Context, *wrapperspb.Int64Value) (*ChatRecords, error)
	FindRoomBySlug(context.Context, *wrapperspb.StringValue) (*Room, error)
	CreateRoom(context.Context, *Room) (*Room, error)
	CreateUser(context.Context, *User) (*User, error)
	FindUserByEmail(context.Context, *wrapperspb.StringValue) (*User, error)
	FindUserByID(context.Context, *wrapperspb.StringValue) (*User, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateChatRecord", GatewayServer.CreateChatRecord),
		unary("DeleteChatRecords", GatewayServer.DeleteChatRecords),
		unary("FindChatRecords", GatewayServer.FindChatRecords),
		unary("FindRoomBySlug", GatewayServer.FindRoomBySlug),
		unary("CreateRoom", GatewayServer.CreateRoom),
		unary("CreateUser", GatewayServer.CreateUser),
		unary("FindUserByEmail", GatewayServer.FindUserByEmail),
		unary("FindUserByID", GatewayServer.FindUserByID),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inkwell/gateway.proto",
}

// RegisterGatewayServer attaches srv to a grpc.Server.
func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&serviceDesc, srv)
}

func unary[Req, Resp any](name string, call func(GatewayServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GatewayServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GatewayServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func toChatRecord(r models.ChatRecord) ChatRecord {
	return ChatRecord{ID: r.ID, RoomID: r.RoomID, UserID: r.UserID, Message: r.Message, CreatedAt: r.CreatedAt}
}

func (r ChatRecord) model() models.ChatRecord {
	return models.ChatRecord{ID: r.ID, RoomID: r.RoomID, UserID: r.UserID, Message: r.Message, CreatedAt: r.CreatedAt}
}

func toRoom(r models.Room) Room {
	return Room{ID: r.ID, Slug: r.Slug, AdminID: r.AdminID, SecretHash: r.SecretHash, CreatedAt: r.CreatedAt}
}

func (r Room) model() models.Room {
	return models.Room{ID: r.ID, Slug: r.Slug, AdminID: r.AdminID, SecretHash: r.SecretHash, CreatedAt: r.CreatedAt}
}

func toUser(u models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}
}

func (u User) model() models.User {
	return models.User{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}
}
