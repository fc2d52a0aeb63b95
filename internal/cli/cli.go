// ============================================================================
// fairpool CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line interface for the fairpool toolkit
//
// Command Structure:
//   fairpool                    # Root command
//   ├── serve                   # Run a FairPool with a Prometheus /metrics endpoint
//   │   └── --config, -c       # Specify config file
//   ├── ring                    # Actor ring benchmark
//   │   └── --actors, --hops
//   ├── pingpong                # Two-actor ping/pong demo
//   │   └── --rounds
//   ├── --version
//   └── --help
//
// Configuration Management:
//   Uses YAML format config file (default: configs/default.yaml):
//   - pool: worker thread count
//   - metrics: Prometheus endpoint enable flag and port
//
// serve Command:
//   Starts a standalone FairPool, registers its metrics Collector, starts the
//   Prometheus HTTP server (if enabled), then blocks on SIGINT/SIGTERM before
//   disposing the pool.
//
// ring Command:
//   Classic actor-ring microbenchmark: N actors arranged in a ring, each
//   forwarding a decrementing hop counter to the next actor, until the
//   counter reaches zero.
//
// pingpong Command:
//   Two actors exchange a bounded number of ping/pong messages via
//   PostFrom/Ref, demonstrating reply addressing.
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvidlabs/fairpool/pkg/actor"
	"github.com/corvidlabs/fairpool/pkg/metrics"
	"github.com/corvidlabs/fairpool/pkg/pool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var log = slog.Default()

// Config is the complete fairpool CLI configuration, loaded from YAML.
type Config struct {
	Pool struct {
		Threads int `yaml:"threads"`
	} `yaml:"pool"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

var configFile string

// BuildCLI assembles the fairpool root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fairpool",
		Short: "fairpool: a tag-fair worker pool and actor toolkit",
		Long: `fairpool provides a tag-fair FIFO queue, a one-shot future, a
dynamically resizable worker pool built on the queue, and a cooperative
actor abstraction driven by that pool.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildServeCommand())
	rootCmd.AddCommand(buildRingCommand())
	rootCmd.AddCommand(buildPingPongCommand())

	return rootCmd
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

func buildServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a FairPool with a Prometheus metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	return cmd
}

func serve() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Info("starting fairpool serve", "threads", cfg.Pool.Threads, "config", configFile)

	p := pool.New(pool.Config{Threads: cfg.Pool.Threads})
	defer p.Dispose()

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(p)
		prometheus.MustRegister(collector)
		go func() {
			log.Info("starting metrics server", "port", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, disposing pool")
	return nil
}

func buildRingCommand() *cobra.Command {
	var actors int
	var hops int

	cmd := &cobra.Command{
		Use:   "ring",
		Short: "Run the actor ring benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRing(actors, hops)
		},
	}
	cmd.Flags().IntVar(&actors, "actors", 503, "number of actors in the ring")
	cmd.Flags().IntVar(&hops, "hops", 1_000_000, "number of forwards before the benchmark reports")
	return cmd
}

func runRing(numActors, hops int) error {
	if numActors < 2 {
		return fmt.Errorf("ring needs at least 2 actors, got %d", numActors)
	}

	p := pool.New(pool.Config{})
	defer p.Dispose()
	scheduler := p.AsScheduler(0)

	done := make(chan struct{})
	ring := make([]*actor.Base[int], numActors)
	for i := range ring {
		i := i
		ring[i] = actor.New(actor.Config[int]{
			Scheduler: scheduler,
			Handler: func(hopsLeft int, _ actor.Ref) {
				if hopsLeft == 0 {
					close(done)
					return
				}
				ring[(i+1)%numActors].Post(hopsLeft - 1)
			},
		})
	}

	start := time.Now()
	ring[0].Post(hops)
	<-done
	elapsed := time.Since(start)

	fmt.Printf("ring: %d actors, %d hops, elapsed %s (%.0f hops/sec)\n",
		numActors, hops, elapsed, float64(hops)/elapsed.Seconds())
	return nil
}

func buildPingPongCommand() *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "pingpong",
		Short: "Run the two-actor ping/pong demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPingPong(rounds)
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 100_000, "number of ping/pong round trips")
	return cmd
}

type pingPongMsg struct {
	remaining int
}

func runPingPong(rounds int) error {
	p := pool.New(pool.Config{Threads: 2})
	defer p.Dispose()
	scheduler := p.AsScheduler(0)

	done := make(chan struct{})

	var ping, pong *actor.Base[pingPongMsg]
	ping = actor.New(actor.Config[pingPongMsg]{
		Scheduler: scheduler,
		Handler: func(msg pingPongMsg, sender actor.Ref) {
			if msg.remaining == 0 {
				close(done)
				return
			}
			pong.PostFrom(pingPongMsg{remaining: msg.remaining - 1}, ping.Ref())
		},
	})
	pong = actor.New(actor.Config[pingPongMsg]{
		Scheduler: scheduler,
		Handler: func(msg pingPongMsg, sender actor.Ref) {
			ping.PostFrom(pingPongMsg{remaining: msg.remaining}, pong.Ref())
		},
	})

	start := time.Now()
	pong.Post(pingPongMsg{remaining: rounds})
	<-done
	elapsed := time.Since(start)

	fmt.Printf("pingpong: %d rounds, elapsed %s (%.0f msgs/sec)\n",
		rounds, elapsed, float64(rounds*2)/elapsed.Seconds())
	return nil
}
