package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophdrop/internal/adminpb"
	"github.com/dmitrijs2005/gophdrop/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer() *GRPCServer {
	return &GRPCServer{
		logger:   nopLogger{},
		identity: fakeIdentity{},
	}
}

var dispatchInfo = &grpc.UnaryServerInfo{FullMethod: adminpb.AdminService_DispatchFolder_FullMethodName}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer()

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, dispatchInfo, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
}

func TestInterceptor_ExpiredToken(t *testing.T) {
	s := newTestServer()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "old-token"))

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for expired token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(ctx, nil, dispatchInfo, h)
	st, _ := status.FromError(err)
	if st.Code() != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", st.Code())
	}
	if st.Message() != common.ErrTokenExpired.Error() {
		t.Fatalf("unexpected message: %q", st.Message())
	}
}

func TestInterceptor_NonAdmin(t *testing.T) {
	s := newTestServer()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "bob-token"))

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for non-admin")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(ctx, nil, dispatchInfo, h)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("want PermissionDenied, got %v", err)
	}
}

func TestInterceptor_AdminPutsUserInContext(t *testing.T) {
	s := newTestServer()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "admin-token"))

	var seen string
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = userFrom(ctx).Username
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(ctx, nil, dispatchInfo, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if seen != "admin" {
		t.Fatalf("user in context = %q, want admin", seen)
	}
}
