package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/maxpoletaev/siloring/agent"
	"github.com/maxpoletaev/siloring/api"
	"github.com/maxpoletaev/siloring/faildetector"
	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/health"
	"github.com/maxpoletaev/siloring/membership"
	"github.com/maxpoletaev/siloring/nodeapi"
	"github.com/maxpoletaev/siloring/oracle"
)

// probeResponsesFunc breaks the construction cycle between the local health
// monitor and the cluster monitor, which depend on each other.
type probeResponsesFunc func() (int, time.Duration, bool)

func (f probeResponsesFunc) LastProbeResponse() (int, time.Duration, bool) {
	return f()
}

func main() {
	var opts options

	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	if err := run(&opts); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	logger := setupLogger(opts.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	membershipOpts, err := loadMembershipOptions(opts.Membership.ConfigFile)
	if err != nil {
		return err
	}

	generation := opts.Silo.Generation
	if generation == 0 {
		generation = time.Now().Unix()
	}

	self, err := membership.NewSiloAddress(opts.GRPC.PublicAddr, generation)
	if err != nil {
		return err
	}

	logger = kitlog.With(logger, "silo", self)

	// Any fatal error stops the silo. It cannot recover its place in the
	// cluster and has to be restarted with a new generation.
	fatalErrs := make(chan error, 1)

	fatal := membership.FatalFunc(func(source string, err error) {
		level.Error(logger).Log("msg", "fatal error, terminating", "source", source, "err", err)

		select {
		case fatalErrs <- fmt.Errorf("%s: %w", source, err):
		default:
		}

		cancel()
	})

	table, closeTable, err := setupTable(ctx, opts, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeTable(context.Background()); err != nil {
			level.Error(logger).Log("msg", "failed to close membership table", "err", err)
		}
	}()

	conns := nodeapi.NewRegistry(nodeapi.Dialer(func(ctx context.Context, addr string) (*nodeapi.Client, error) {
		return nodeapi.DialGRPC(ctx, addr)
	}), membershipOpts.ProbeTimeout)
	defer conns.Close()

	remote := nodeapi.NewRemote(conns)

	gossipConf := gossip.DefaultConfig()
	gossipConf.Silo = self
	gossipConf.Logger = kitlog.With(logger, "component", "gossip")
	gossiper := gossip.New(gossipConf, remote)

	managerConf := membership.DefaultConfig()
	managerConf.Options = membershipOpts
	managerConf.Silo = self
	managerConf.Name = opts.Silo.Name
	managerConf.Role = opts.Silo.Role
	managerConf.Logger = kitlog.With(logger, "component", "membership")

	manager := membership.NewTableManager(managerConf, table, gossiper, fatal)

	var clusterMonitor *faildetector.ClusterMonitor

	requests := health.NewProbeRequestMonitor(time.Now)

	healthConf := health.DefaultConfig()
	healthConf.Options = membershipOpts
	healthConf.Silo = self
	healthConf.Logger = kitlog.With(logger, "component", "health")

	localHealth := health.NewLocalMonitor(healthConf, manager, probeResponsesFunc(func() (int, time.Duration, bool) {
		return clusterMonitor.LastProbeResponse()
	}), requests)

	detectorConf := faildetector.DefaultConfig()
	detectorConf.Options = membershipOpts
	detectorConf.Silo = self
	detectorConf.Logger = kitlog.With(logger, "component", "faildetector")
	clusterMonitor = faildetector.New(detectorConf, manager, remote, localHealth)

	agentConf := agent.DefaultConfig()
	agentConf.Options = membershipOpts
	agentConf.Logger = kitlog.With(logger, "component", "agent")
	membershipAgent := agent.New(agentConf, manager, remote, fatal)

	statusOracle := oracle.New(manager, kitlog.With(logger, "component", "oracle"))
	statusOracle.Subscribe(remote)

	localHealth.Register("membership-refresh", manager)
	localHealth.Register("cluster-monitor", clusterMonitor)
	localHealth.Register("i-am-alive", membershipAgent)

	serverConf := nodeapi.DefaultServerConfig()
	serverConf.Silo = self
	serverConf.Logger = kitlog.With(logger, "component", "nodeapi")
	receiver := gossip.NewReceiver(manager, gossipConf.Logger)
	server := nodeapi.NewServer(serverConf, remote, requests, localHealth, receiver)

	wg := sync.WaitGroup{}

	stopGRPC, err := setupGRPCServer(&wg, opts.GRPC.BindAddr, server, logger)
	if err != nil {
		return err
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		router := api.CreateRouter(statusOracle, localHealth)

		if err := api.StartServer(ctx, router, logger, opts.RestAPI.BindAddr); err != nil {
			level.Error(logger).Log("msg", "admin api failed", "err", err)
		}
	}()

	startErr := start(ctx, manager, membershipAgent, clusterMonitor, localHealth, statusOracle)
	if startErr == nil {
		level.Info(logger).Log("msg", "silo is active")
		<-ctx.Done()
	}

	level.Info(logger).Log("msg", "shutting down")

	var fatalErr error

	select {
	case fatalErr = <-fatalErrs:
	default:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*membershipOpts.ShutdownGracePeriod)
	defer cancelShutdown()

	// A silo that failed fatally leaves without the graceful handoff.
	graceful := startErr == nil && fatalErr == nil

	if err := membershipAgent.Leave(shutdownCtx, graceful); err != nil {
		level.Error(logger).Log("msg", "failed to leave the cluster", "err", err)
	}

	shutdowns := []shutdownFunc{
		clusterMonitor.Stop,
		localHealth.Stop,
		statusOracle.Stop,
		manager.Stop,
		stopGRPC,
	}

	for _, shutdown := range shutdowns {
		if err := shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "shutdown failed", "err", err)
		}
	}

	cancel()
	wg.Wait()

	if startErr != nil {
		return startErr
	}

	return fatalErr
}

// start brings the silo from Created to Active. The cluster monitor and
// the oracle start while the silo is joining, so that it is already probing
// its peers when it becomes active.
func start(
	ctx context.Context,
	manager *membership.TableManager,
	membershipAgent *agent.Agent,
	clusterMonitor *faildetector.ClusterMonitor,
	localHealth *health.LocalMonitor,
	statusOracle *oracle.Oracle,
) error {
	if err := manager.Start(ctx); err != nil {
		return err
	}

	if err := membershipAgent.Join(ctx); err != nil {
		return err
	}

	statusOracle.Start()
	clusterMonitor.Start()
	localHealth.Start()

	if err := membershipAgent.BecomeActive(ctx); err != nil {
		return err
	}

	return nil
}
