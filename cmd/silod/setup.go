package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"

	"github.com/maxpoletaev/siloring/membership"
	"github.com/maxpoletaev/siloring/nodeapi"
	"github.com/maxpoletaev/siloring/storage/etcd"
	"github.com/maxpoletaev/siloring/storage/inmemory"
	"github.com/maxpoletaev/siloring/storage/postgres"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

func setupLogger(verbose bool) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger
}

func setupTable(ctx context.Context, opts *options, logger kitlog.Logger) (membership.Table, shutdownFunc, error) {
	switch opts.Storage.Backend {
	case "etcd":
		client, err := etcd.NewClient(parseAddrs(opts.Storage.EtcdEndpoints), 5*time.Second)
		if err != nil {
			return nil, nil, err
		}

		level.Info(logger).Log("msg", "using etcd membership table", "endpoints", opts.Storage.EtcdEndpoints)

		shutdown := func(ctx context.Context) error {
			return client.Close()
		}

		return etcd.New(client, opts.Storage.ClusterID), shutdown, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, opts.Storage.PostgresURL)
		if err != nil {
			return nil, nil, err
		}

		level.Info(logger).Log("msg", "using postgres membership table")

		shutdown := func(ctx context.Context) error {
			pool.Close()
			return nil
		}

		return postgres.New(pool, opts.Storage.ClusterID), shutdown, nil

	default:
		level.Warn(logger).Log("msg", "using in-memory membership table, the silo cannot form a cluster with others")
		return inmemory.New(), noopShutdown, nil
	}
}

func setupGRPCServer(wg *sync.WaitGroup, bindAddr string, srv nodeapi.MembershipServer, logger kitlog.Logger) (shutdownFunc, error) {
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc listener: %w", err)
	}

	grpcServer := grpc.NewServer()
	nodeapi.Register(grpcServer, srv)

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := grpcServer.Serve(listener); err != nil {
			level.Error(logger).Log("msg", "grpc server failed", "err", err)
		}
	}()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down grpc server")
		grpcServer.GracefulStop()
		return nil
	}

	return shutdown, nil
}
