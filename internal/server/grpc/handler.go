package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) DispatchFolder(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {

	folder := req.GetValue()
	if folder == "" {
		return nil, status.Error(codes.InvalidArgument, "folder is required")
	}

	outcome, err := s.dispatcher.DispatchFolder(ctx, folder)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLockUnavailable):
			return nil, status.Error(codes.Unavailable, err.Error())
		case errors.Is(err, common.ErrDispatchFailure):
			// the batch was put back; the outcome says so
			s.logger.Warn(ctx, "dispatch failed", "folder", folder, "error", err)
		default:
			s.logger.Error(ctx, "dispatch error", "folder", folder, "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	s.logger.Info(ctx, "dispatch requested", "folder", folder, "outcome", outcome.String(), "by", userFrom(ctx).Username)
	return wrapperspb.String(outcome.String()), nil
}

func (s *GRPCServer) ListPending(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	entries, err := s.backlog.Pending(ctx)
	if err != nil {
		s.logger.Error(ctx, "list pending", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	res, err := pendingStruct(entries)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return res, nil
}

func pendingStruct(entries []models.QueueEntry) (*structpb.Struct, error) {
	list := make([]any, 0, len(entries))
	for _, e := range entries {
		files := make([]any, 0, len(e.Files))
		for _, f := range e.Files {
			files = append(files, f)
		}
		list = append(list, map[string]any{
			"folder":      e.Folder,
			"files":       files,
			"firstUpload": e.FirstUpload,
			"lastUpload":  e.LastUpload,
		})
	}
	return structpb.NewStruct(map[string]any{"entries": list})
}

func (s *GRPCServer) SweepChunks(ctx context.Context, req *durationpb.Duration) (*wrapperspb.Int64Value, error) {

	if err := req.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ttl := req.AsDuration()
	if ttl <= 0 {
		return nil, status.Error(codes.InvalidArgument, "age must be positive")
	}

	n, err := s.sweeper.SweepOlderThan(ctx, ttl)
	if err != nil {
		s.logger.Error(ctx, "sweep", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return wrapperspb.Int64(n), nil
}
