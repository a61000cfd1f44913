package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	seriesv1 "github.com/Leganyst/event-series/internal/api/series/v1"
	"github.com/Leganyst/event-series/internal/scheduler"
	"github.com/Leganyst/event-series/internal/service"
)

func serveCmd(a *app) *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC server and the horizon scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), !noScheduler)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not materialize series in the background")
	return cmd
}

func (a *app) serve(ctx context.Context, withScheduler bool) error {
	gormDB, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	svc := a.newService(gormDB)

	var sched *scheduler.Scheduler
	if withScheduler {
		sched, err = scheduler.New(svc, scheduler.Config{
			Spec:    a.cfg.ScheduleCron,
			Horizon: a.cfg.Horizon(),
			Timeout: a.cfg.RefreshTimeout(),
		}, a.log)
		if err != nil {
			return err
		}
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(service.LoggingInterceptor(a.log)))
	seriesv1.RegisterSeriesServiceServer(grpcServer, service.NewSeriesService(svc, a.log))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(seriesv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", a.cfg.GRPCAddr).Msg("gRPC server listening")
		return grpcServer.Serve(lis)
	})
	if sched != nil {
		g.Go(func() error {
			if err := sched.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down gRPC server")
		healthSrv.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})
	return g.Wait()
}
