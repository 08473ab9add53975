package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"Inkwell/internal/models"
)

const callTimeout = 3 * time.Second

func clientLogger() *slog.Logger { return slog.With("component", "gateway-client") }

// Client is a models.Store backed by a remote gateway.
type Client struct {
	conn *grpc.ClientConn
}

var _ models.Store = (*Client)(nil)

// Dial connects to a gateway. The connection is established lazily.
func Dial(address string, opts ...grpc.DialOption) (*Client, error) {
	clientLogger().Info("Connecting to persistence gateway", "address", address)

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	err := c.conn.Invoke(ctx, fullMethod(method), in, out)
	if err != nil {
		clientLogger().Warn("gateway call failed", "method", method, "duration", time.Since(start), "error", err)
		return fromStatus(err)
	}
	return nil
}

func (c *Client) CreateChatRecord(ctx context.Context, rec models.ChatRecord) (models.ChatRecord, error) {
	in := toChatRecord(rec)
	var out ChatRecord
	if err := c.invoke(ctx, "CreateChatRecord", &in, &out); err != nil {
		return models.ChatRecord{}, err
	}
	return out.model(), nil
}

func (c *Client) DeleteChatRecords(ctx context.Context, roomID int64, message string) (int64, error) {
	out := &wrapperspb.Int64Value{}
	if err := c.invoke(ctx, "DeleteChatRecords", &DeleteChatsRequest{RoomID: roomID, Message: message}, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) FindChatRecords(ctx context.Context, roomID int64) ([]models.ChatRecord, error) {
	var out ChatRecords
	if err := c.invoke(ctx, "FindChatRecords", wrapperspb.Int64(roomID), &out); err != nil {
		return nil, err
	}
	records := make([]models.ChatRecord, 0, len(out.Records))
	for _, r := range out.Records {
		records = append(records, r.model())
	}
	return records, nil
}

func (c *Client) FindRoomBySlug(ctx context.Context, slug string) (models.Room, error) {
	var out Room
	if err := c.invoke(ctx, "FindRoomBySlug", wrapperspb.String(slug), &out); err != nil {
		return models.Room{}, err
	}
	return out.model(), nil
}

func (c *Client) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	in := toRoom(room)
	var out Room
	if err := c.invoke(ctx, "CreateRoom", &in, &out); err != nil {
		return models.Room{}, err
	}
	return out.model(), nil
}

func (c *Client) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	in := toUser(user)
	var out User
	if err := c.invoke(ctx, "CreateUser", &in, &out); err != nil {
		return models.User{}, err
	}
	return out.model(), nil
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var out User
	if err := c.invoke(ctx, "FindUserByEmail", wrapperspb.String(email), &out); err != nil {
		return models.User{}, err
	}
	return out.model(), nil
}

func (c *Client) FindUserByID(ctx context.Context, id string) (models.User, error) {
	var out User
	if err := c.invoke(ctx, "FindUserByID", wrapperspb.String(id), &out); err != nil {
		return models.User{}, err
	}
	return out.model(), nil
}

// Health checks the gateway through the standard health service.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return fmt.Errorf("gateway health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("gateway not serving: %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		clientLogger().Info("Closing connection to persistence gateway")
		return c.conn.Close()
	}
	return nil
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), models.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), models.ErrConflict)
	}
	return err
}
