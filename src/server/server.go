package server

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trading-simulator/src/backtest"
	"trading-simulator/src/interfaces"
	"trading-simulator/src/logger"
	"trading-simulator/src/models"
	"trading-simulator/src/simulator"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config       *models.MConfig
	Logger       *logger.Logger
	Store        interfaces.IDatabase
	Orchestrator *backtest.Orchestrator
	History      *backtest.HistoryAggregator
	engine       *gin.Engine

	// Feed hub. The simulator is mutated only inside the hub goroutine,
	// which is the single writer for all feed state.
	sim        *simulator.PriceSimulator
	clients    map[*FeedClient]struct{}
	register   chan *FeedClient
	unregister chan *FeedClient
	control    chan models.MControlMessage

	// Latest tick snapshot, readable outside the hub goroutine.
	lastTick   models.MTick
	stateMutex sync.RWMutex

	clientCount atomic.Int64
	started     atomic.Bool
	done        chan struct{}

	// Side-channel counters: malformed inbound messages and ticks skipped
	// for slow subscribers. Both are non-propagating outcomes.
	DroppedMessages atomic.Uint64
	SkippedSends    atomic.Uint64
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, log *logger.Logger, store interfaces.IDatabase, orch *backtest.Orchestrator) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:       cfg,
		Logger:       log,
		Store:        store,
		Orchestrator: orch,
		History:      backtest.NewHistoryAggregator(store),
		engine:       gin.New(),
		sim:          simulator.NewPriceSimulator(cfg.Feed.DefaultSymbol),
		clients:      make(map[*FeedClient]struct{}),
		register:     make(chan *FeedClient),
		unregister:   make(chan *FeedClient),
		control:      make(chan models.MControlMessage, 64),
		done:         make(chan struct{}),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.corsMiddleware())

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// CORS Middleware
// -----------------------------------------------------------------------------

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if s.originAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	// An empty allow-list accepts any origin.
	if len(s.Config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints (authenticated)
	api := s.engine.Group("/", s.authMiddleware())
	api.POST("/backtest/run", s.runBacktest)
	api.GET("/backtest/history", s.getHistory)
	api.GET("/user/profile", s.getProfile)

	// Unauthenticated endpoints
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket feed
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start launches the feed hub and blocks serving HTTP. Starting twice is a
// usage error.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s (tick interval %dms)", addr, s.Config.Feed.TickIntervalMs)

	go s.runFeed(time.Duration(s.Config.Feed.TickIntervalMs) * time.Millisecond)

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *Server) Stop() error {
	close(s.done)
	return nil
}

// -----------------------------------------------------------------------------

// Handler exposes the gin engine for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
