// Package server assembles the services, the HTTP router and the job
// scheduler from configuration and runs them together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/config"
	"github.com/almuerzo-cl/almuerzo/backend/internal/api"
	"github.com/almuerzo-cl/almuerzo/backend/internal/cache"
	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/scheduler"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

// Version is reported by the health endpoints.
var Version = "dev"

const (
	cachePrefix = "almuerzo"
	jobQueueKey = "almuerzo:jobs"
)

// Options replaces external dependencies. Zero fields are built from the
// configuration.
type Options struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Images   service.ObjectPutter
	Chat     service.ChatModel
	Embedder service.Embedder
	Email    service.IEmailService
}

// Server represents the HTTP server and its background workers
type Server struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	ownsDB    bool
	redis     *redis.Client
	ownsRedis bool
	scheduler *scheduler.Scheduler
	router    *gin.Engine
	http      *http.Server

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New wires every service. The database is opened unless opts supplies one;
// Redis, S3, the chat model and SMTP are optional and fall back to
// in-process or no-op implementations.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Server, error) {
	log = logging.OrNop(log)
	s := &Server{cfg: cfg, log: log, db: opts.DB, redis: opts.Redis}

	if s.db == nil {
		db, err := database.New(cfg, log)
		if err != nil {
			return nil, err
		}
		s.db, s.ownsDB = db, true
	}
	if s.redis == nil {
		client, err := database.NewRedisClient(cfg, log)
		if err != nil {
			log.Warn("Redis unavailable, using in-process cache and job queue", zap.Error(err))
		}
		s.redis, s.ownsRedis = client, client != nil
	}

	images := opts.Images
	bucket := cfg.S3BucketName
	if images == nil {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			_ = s.close()
			return nil, err
		}
		images, bucket = s3cfg.Client, s3cfg.BucketName
	}

	embedder, chat := opts.Embedder, opts.Chat
	if embedder == nil || chat == nil {
		e, c := AIFromConfig(ctx, cfg, log)
		if embedder == nil {
			embedder = e
		}
		if chat == nil && c != nil {
			chat = c
		}
	}

	email := opts.Email
	if email == nil {
		email = service.NewEmailService(cfg, log)
	}

	var queue scheduler.JobQueue = scheduler.NewMemoryQueue()
	if s.redis != nil {
		queue = scheduler.NewRedisQueue(s.redis, jobQueueKey)
	}
	s.scheduler = scheduler.New(queue, cfg.SchedulerTick, log.Named("scheduler"))

	loc := cfg.Location()
	store := cache.New(s.redis, cachePrefix)
	origin := geo.Point{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon}

	catalog := service.NewCatalogService(s.db, embedder, origin, cfg.DistanceLimitKm, loc, log)
	notifier := service.NewNotificationService(s.db, email, log)
	msgs := service.NewMessages(loc, cfg.PublicBaseURL)
	booking := service.NewBookingService(s.db, catalog, notifier, msgs, s.scheduler, log)
	service.RegisterJobHandlers(s.scheduler, booking)
	imageService := service.NewImageService(images, bucket, log)

	deps := &api.Deps{
		DB:            s.db,
		Auth:          service.NewAuthService(s.db, cfg.JWTSecret),
		Catalog:       catalog,
		Booking:       booking,
		Orders:        service.NewOrderService(s.db, notifier, msgs, log),
		Suggestions:   service.NewSuggestionService(s.db, catalog, embedder, chat, store, cfg.DistanceLimitKm, log),
		Notifications: notifier,
		Contacts:      service.NewContactService(s.db),
		Community:     service.NewCommunityService(s.db, imageService, email, log),
		Images:        imageService,
		Dashboard:     service.NewDashboardService(s.db, loc, log),
		Limits:        store,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		Version:       Version,
		Log:           log,
	}

	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = api.NewRouter(deps)
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// AIFromConfig picks the embedder and chat model. Without a Gemini key the
// embedder is the local hashing one; a nil chat model means suggestions use
// the ranked fallback.
func AIFromConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Embedder, service.ChatModel) {
	var embedder service.Embedder = service.HashEmbedder{}
	var chat service.ChatModel

	if cfg.GeminiAPIKey != "" {
		client, err := service.NewGenAIClient(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			log.Warn("Gemini client unavailable", zap.Error(err))
		} else {
			embedder = service.NewGenAIEmbedder(client, cfg.EmbeddingModel)
			if cfg.LLMProvider == "gemini" {
				chat = service.NewGeminiChat(client, cfg.LLMModel)
			}
		}
	}

	if chat == nil && cfg.LLMProvider == "deepseek" {
		client, err := service.NewChatClient(cfg, log)
		if err != nil {
			log.Warn("Chat model unavailable, suggestions use ranked fallback", zap.Error(err))
		} else {
			chat = client
		}
	}

	log.Info("AI providers selected",
		zap.String("embedder", embedder.Model()),
		zap.Bool("chat", chat != nil))
	return embedder, chat
}

// Router exposes the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the configured address and serves in the background. The
// scheduler runs until Shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.ServerHost, s.cfg.ServerPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("Scheduler stopped", zap.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.log.Info("Server started", zap.String("addr", ln.Addr().String()), zap.String("version", Version))
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and the
// scheduler, then closes the connections the server opened.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	err := s.http.Shutdown(ctx)
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if cerr := s.close(); err == nil {
		err = cerr
	}
	s.log.Info("Server stopped")
	return err
}

func (s *Server) close() error {
	var errs []error
	if s.ownsRedis && s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.ownsDB && s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
