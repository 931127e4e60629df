package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/adminpb"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/dmitrijs2005/gophdrop/internal/server/notify"
	"google.golang.org/grpc"
)

type Dispatcher interface {
	DispatchFolder(ctx context.Context, folder string) (notify.Outcome, error)
}

type Backlog interface {
	Pending(ctx context.Context) ([]models.QueueEntry, error)
}

type Sweeper interface {
	SweepOlderThan(ctx context.Context, ttl time.Duration) (int64, error)
}

type Identity interface {
	FromToken(ctx context.Context, token string) (*models.User, error)
	IsAdmin(u *models.User) bool
}

// GRPCServer serves the admin service. Every call requires an admin token.
type GRPCServer struct {
	adminpb.UnimplementedAdminServiceServer
	address    string
	dispatcher Dispatcher
	backlog    Backlog
	sweeper    Sweeper
	identity   Identity
	logger     logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, d Dispatcher, b Backlog, sw Sweeper, id Identity) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		dispatcher: d,
		backlog:    b,
		sweeper:    sw,
		identity:   id,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	adminpb.RegisterAdminServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
