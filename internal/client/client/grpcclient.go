package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/adminpb"
	"github.com/dmitrijs2005/gophdrop/internal/client/models"
	"github.com/dmitrijs2005/gophdrop/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminClient calls the gRPC admin service with the token supplied by
// the token function, usually the HTTP client's current access token.
type AdminClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      adminpb.AdminServiceClient
	token       func() string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *AdminClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.token != nil {
		if t := s.token(); t != "" {
			ctx = withAccessToken(ctx, t)
		}
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewAdminClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults.
func NewAdminClient(endpointURL string, token func() string, opts ...grpc.DialOption) (*AdminClient, error) {
	c := &AdminClient{endpointURL: endpointURL, token: token}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = adminpb.NewAdminServiceClient(conn)
	return c, nil
}

func (s *AdminClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// DispatchFolder returns the server's outcome name. A folder with nothing
// queued yields ErrNoPending and an unsent batch ErrNotSent.
func (s *AdminClient) DispatchFolder(ctx context.Context, folder string) (string, error) {
	resp, err := s.client.DispatchFolder(ctx, wrapperspb.String(folder))
	if err != nil {
		return "", s.mapError(err)
	}

	switch out := resp.GetValue(); out {
	case "NoPending":
		return out, ErrNoPending
	case "NotSent":
		return out, ErrNotSent
	default:
		return out, nil
	}
}

func (s *AdminClient) ListPending(ctx context.Context) ([]models.PendingEntry, error) {
	resp, err := s.client.ListPending(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return pendingFromStruct(resp), nil
}

func pendingFromStruct(st *structpb.Struct) []models.PendingEntry {
	list := st.GetFields()["entries"].GetListValue().GetValues()

	entries := make([]models.PendingEntry, 0, len(list))
	for _, v := range list {
		f := v.GetStructValue().GetFields()

		e := models.PendingEntry{
			Folder:      f["folder"].GetStringValue(),
			FirstUpload: int64(f["firstUpload"].GetNumberValue()),
			LastUpload:  int64(f["lastUpload"].GetNumberValue()),
		}
		for _, name := range f["files"].GetListValue().GetValues() {
			e.Files = append(e.Files, name.GetStringValue())
		}
		entries = append(entries, e)
	}
	return entries
}

func (s *AdminClient) SweepChunks(ctx context.Context, olderThan time.Duration) (int64, error) {
	resp, err := s.client.SweepChunks(ctx, durationpb.New(olderThan))
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *AdminClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
