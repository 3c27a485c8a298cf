package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AdkBridge/backend/internal/api/http"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/api/middleware"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/api/ws"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/channel"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/contextstore"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/controller"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/origin"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/probe"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/tracing"
)

// Server wires the bridge together: origin policy, message channel,
// context store, health probe, connection controller, and the HTTP and
// WebSocket surfaces on one gin router.
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	router     *gin.Engine
	controller *controller.Controller
	tracer     *tracing.Tracer
	httpServer *http.Server
}

// New assembles a server from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	policy, err := origin.New(cfg.Server.PublicOrigin, cfg.Bridge.PeerTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid origin configuration: %w", err)
	}

	store, err := contextstore.New(cfg.Bridge.InitialContext())
	if err != nil {
		return nil, fmt.Errorf("invalid initial context: %w", err)
	}

	metrics := monitoring.NewMetrics(nil)
	ch := channel.New(policy, logger.Named("channel").Logger)
	prb := probe.New(policy.ProbeBase(), cfg.Bridge.ProbeInterval, nil, logger.Named("probe").Logger)

	ctrl := controller.New(controller.Config{
		Channel:  ch,
		Store:    store,
		Probe:    prb,
		Logger:   logger.Named("controller").Logger,
		Metrics:  metrics,
		LogLimit: cfg.Bridge.LogLimit,
	})

	handlers := apihttp.NewHandlers(ctrl, prb, logger)
	relay := apihttp.NewRelay(apihttp.RelayConfig{
		Base:    policy.ProbeBase(),
		Metrics: metrics,
		Logger:  logger,
		Context: func() map[string]string { return ctrl.Snapshot().Context },
	})
	wsHandler := ws.NewHandler(ctrl, policy, metrics, logger)

	tracer := tracing.New("adk-bridge", logger.Named("tracing").Logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	corsOrigins := []string{policy.SelfOrigin()}
	if peer := policy.TargetOrigin(); peer != "" && peer != policy.SelfOrigin() {
		corsOrigins = append(corsOrigins, peer)
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(corsOrigins...)))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/session", handlers.Session)
	router.POST("/messages", handlers.SendMessage)
	router.GET("/messages", handlers.Messages)
	router.GET("/messages/export", handlers.ExportMessages)
	router.GET("/context", handlers.Context)
	router.PATCH("/context", handlers.UpdateContext)
	router.POST("/context/clear", handlers.ClearContext)
	router.POST("/validation/start", handlers.StartValidation)
	router.POST("/agent/chat", relay.Chat)

	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		cfg:        cfg,
		logger:     logger,
		router:     router,
		controller: ctrl,
		tracer:     tracer,
	}, nil
}

// Router exposes the gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Controller exposes the connection controller, for embedding hosts that
// want to register OnEvent callbacks before Run.
func (s *Server) Controller() *controller.Controller {
	return s.controller
}

// Run starts the controller and serves HTTP until the context is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.controller.Start(ctx)

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and tears down the controller.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.controller.Close()
	s.tracer.Close()
	return err
}
