package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/victornm/codechallenge/internal/api"
	"github.com/victornm/codechallenge/internal/challenge"
	"github.com/victornm/codechallenge/internal/countdown"
	"github.com/victornm/codechallenge/internal/event"
	"github.com/victornm/codechallenge/internal/notify"
	"github.com/victornm/codechallenge/internal/report"
	"github.com/victornm/codechallenge/internal/runner"
	"github.com/victornm/codechallenge/internal/session"
	"github.com/victornm/codechallenge/internal/store"
	"github.com/victornm/codechallenge/internal/telemetry"
	"github.com/victornm/codechallenge/internal/workspace"
)

type Config struct {
	Log struct {
		// Level is a slog level name: DEBUG, INFO, WARN or ERROR.
		Level string
		// Format is "text" or "json".
		Format string
	}

	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Redis struct {
		Notify struct {
			Enabled bool
			Addrs   []string
			Pass    string
			Prefix  string
		}
	}

	Runner struct {
		Delay     time.Duration
		Languages []string
		// RunsPerMinute per client, zero for no limit.
		RunsPerMinute float64
		Burst         int
	}

	Countdown struct {
		Tick time.Duration
	}

	Share struct {
		BaseURL string
	}
}

// DefaultConfig is used for every key the config file and environment leave unset.
func DefaultConfig() Config {
	var c Config
	c.Log.Level = "INFO"
	c.Log.Format = "text"
	c.HTTP.Port = 8080
	c.GRPC.Port = 9090
	c.Redis.Notify.Prefix = "codechallenge"
	c.Runner.Delay = runner.DefaultDelay
	c.Runner.Languages = []string{"python", "javascript", "java", "csharp", "cpp", "sql"}
	c.Runner.RunsPerMinute = 30
	c.Runner.Burst = 5
	c.Countdown.Tick = countdown.DefaultInterval
	c.Share.BaseURL = "http://localhost:8080"
	return c
}

type Server struct {
	c Config

	eb    *event.Bus
	store *store.Store

	infra struct {
		redis struct {
			notify redis.UniversalClient
		}
	}

	service struct {
		session   *session.Service
		challenge *challenge.Service
		runner    *runner.Service
		workspace *workspace.Manager
		report    *report.Service
		notify    *notify.Service
	}

	health *health.Server
	http   *http.Server
	grpc   *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()
	s.store = store.New()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if !s.c.Redis.Notify.Enabled {
		slog.Info("server: redis notifications disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Notify.Addrs,
		Password: s.c.Redis.Notify.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return fmt.Errorf("redis: notify: %w", err)
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: notify: %w", err)
	}

	s.infra.redis.notify = r
	return nil
}

func (s *Server) initService() {
	s.service.session = session.NewService(session.Config{
		Store:    s.store,
		EventBus: s.eb,
	})

	s.service.challenge = challenge.NewService(challenge.Config{
		Store:    s.store,
		EventBus: s.eb,
		BaseURL:  s.c.Share.BaseURL,
	})

	s.service.runner = runner.NewService(runner.Config{
		Store:    s.store,
		EventBus: s.eb,
		Executor: runner.NewSimulatedExecutor(s.c.Runner.Delay),
	})

	s.service.workspace = workspace.NewManager(workspace.ManagerConfig{
		Store:     s.store,
		Runner:    s.service.runner,
		EventBus:  s.eb,
		Countdown: countdown.Config{Interval: s.c.Countdown.Tick},
	})

	s.service.report = report.NewService(report.Config{
		Store: s.store,
	})

	if s.infra.redis.notify != nil {
		s.service.notify = notify.NewService(notify.Config{
			EventBus: s.eb,
			Redis:    s.infra.redis.notify,
			Prefix:   s.c.Redis.Notify.Prefix,
		})
	}
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	e.Use(gin.Recovery(), api.RequestLogger())

	var limit rate.Limit
	if s.c.Runner.RunsPerMinute > 0 {
		limit = rate.Limit(s.c.Runner.RunsPerMinute / 60)
	}

	api.New(api.Config{
		Router:    e.Group("/api/v1"),
		EventBus:  s.eb,
		Store:     s.store,
		Session:   s.service.session,
		Challenge: s.service.challenge,
		Workspace: s.service.workspace,
		Report:    s.service.report,
		Languages: s.c.Runner.Languages,
		RunLimit:  limit,
		RunBurst:  s.c.Runner.Burst,
	})

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// Handler returns the HTTP handler, for serving it without Start.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

// Shutdown stops accepting requests, tears down open workspaces and drains the event handlers.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.service.workspace.Shutdown()
	s.eb.Stop()

	if r := s.infra.redis.notify; r != nil {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
