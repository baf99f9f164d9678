package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/catalog"
	"github.com/sngm3741/bizsurvey-services/api/internal/config"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/auth"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/cache"
	mongodoc "github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/notify"
	adminhttp "github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/admin"
	publichttp "github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/public"
	publicapp "github.com/sngm3741/bizsurvey-services/api/internal/public/application"
)

// analyticsCache は Redis 有無に関わらず同じインターフェースで扱う。
type analyticsCache interface {
	adminapp.AnalyticsCache
	publicapp.CacheInvalidator
}

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	database       *mongo.Database
	redis          redis.UniversalClient
	cache          analyticsCache
	tokens         *auth.TokenManager
	userRepo       *mongodoc.UserRepository
	catalog        *catalog.Catalog
	industryRepo   *mongodoc.IndustryRepository
	collections    mongodoc.Collections
	publicHandler  *publichttp.Handler
	adminHandler   *adminhttp.Handler
	addr           string
	allowedOrigins []string
}

// Run はインデックスと初期カタログを用意したうえで HTTP サーバーを起動する。
func (s *Server) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mongodoc.EnsureIndexes(ctx, s.database, s.collections); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := s.bootstrapCatalog(ctx); err != nil {
		s.logger.Printf("業種カタログの初期投入に失敗しました: %v", err)
	}

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// Handler はミドルウェアとルーティングを組み立てる。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	s.publicHandler.Register(router)
	router.Route("/admin", func(r chi.Router) {
		s.adminHandler.Register(r, authMiddleware(s.tokens, s.userRepo, s.logger))
	})
	return router
}

// bootstrapCatalog は業種コレクションが空のときだけ埋め込みカタログを投入する。
func (s *Server) bootstrapCatalog(ctx context.Context) error {
	existing, err := s.industryRepo.FindAll(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range s.catalog.Industries {
		if _, err := s.industryRepo.Upsert(ctx, &s.catalog.Industries[i], now); err != nil {
			return fmt.Errorf("upsert %s: %w", s.catalog.Industries[i].Slug, err)
		}
	}
	s.logger.Printf("業種カタログを投入しました: %d 件", len(s.catalog.Industries))
	return nil
}

// healthHandler は MongoDB と (設定されていれば) Redis への疎通を確認する。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "mongo": "ok", "redis": "disabled"}
		code := http.StatusOK
		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			status["status"], status["mongo"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		if s.redis != nil {
			if err := s.redis.Ping(ctx).Err(); err != nil {
				// キャッシュ障害は集計が遅くなるだけなので 200 のまま返す。
				status["redis"] = err.Error()
			} else {
				status["redis"] = "ok"
			}
		}
		status["time"] = time.Now().Format(time.RFC3339)
		writeJSON(s.logger, w, code, status)
	}
}

// shutdown は MongoDB / Redis クライアントをタイムアウト付きで切断する。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB 切断時にエラー: %v", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Printf("Redis 切断時にエラー: %v", err)
		}
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

// New は Config と Mongo クライアントを受け取り、リポジトリ・サービス・ハンドラを組み立てた Server を返す。
func New(cfg config.Config, client *mongo.Client) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}

	database := client.Database(cfg.MongoDatabase)
	srv := &Server{
		logger:   cfg.ServerLog,
		client:   client,
		database: database,
		catalog:  cat,
		tokens:   auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL),
		collections: mongodoc.Collections{
			Surveys:             cfg.SurveyCollection,
			Industries:          cfg.IndustryCollection,
			Users:               cfg.UserCollection,
			FailedNotifications: cfg.FailedNotificationCollection,
		},
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	if cfg.Redis.Enabled() {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		srv.cache = cache.NewAnalyticsCache(srv.redis, cfg.Redis.CacheTTL)
	} else {
		srv.cache = cache.Noop{}
	}

	industryRepo := mongodoc.NewIndustryRepository(database, cfg.IndustryCollection)
	srv.industryRepo = industryRepo
	surveyRepo := mongodoc.NewSurveyRepository(database, cfg.SurveyCollection)
	adminSurveyRepo := mongodoc.NewAdminSurveyRepository(database, cfg.SurveyCollection)
	analyticsRepo := mongodoc.NewAnalyticsRepository(database, cfg.SurveyCollection, loc.String())
	userRepo := mongodoc.NewUserRepository(database, cfg.UserCollection)
	srv.userRepo = userRepo
	failures := mongodoc.NewFailedNotificationRepository(database, cfg.FailedNotificationCollection)

	messenger := notify.NewMessenger(notify.Config{
		HTTPClient:         &http.Client{Timeout: cfg.MessengerTimeout},
		Endpoint:           cfg.MessengerEndpoint,
		DiscordDestination: cfg.DiscordDestination,
		SlackDestination:   cfg.SlackDestination,
		AdminBaseURL:       cfg.AdminSurveyBaseURL,
		Failures:           failures,
		Logger:             cfg.ServerLog,
	})

	srv.publicHandler = publichttp.NewHandler(publichttp.Config{
		Logger: cfg.ServerLog,
		Forms:  publicapp.NewFormService(industryRepo, cat.Common),
		Submissions: publicapp.NewSubmissionService(publicapp.SubmissionConfig{
			Industries:  industryRepo,
			Submissions: surveyRepo,
			Common:      cat.Common,
			Cache:       srv.cache,
			Notifier:    messenger,
			Logger:      cfg.ServerLog,
		}),
	})

	hasher := auth.NewBcryptHasher(0)
	srv.adminHandler = adminhttp.NewHandler(adminhttp.Config{
		Logger: cfg.ServerLog,
		Auth:   adminapp.NewAuthService(userRepo, hasher, srv.tokens, cfg.ServerLog),
		Surveys: adminapp.NewSurveyService(adminapp.SurveyConfig{
			Surveys:    adminSurveyRepo,
			Industries: industryRepo,
			Common:     cat.Common,
			Cache:      srv.cache,
			Location:   loc,
		}),
		Industries: adminapp.NewIndustryService(industryRepo, cat.Common, srv.cache),
		Users:      adminapp.NewUserService(userRepo, hasher),
		Analytics: adminapp.NewAnalyticsService(adminapp.AnalyticsConfig{
			Analytics:  analyticsRepo,
			Industries: industryRepo,
			Common:     cat.Common,
			Cache:      srv.cache,
		}),
		Location: loc,
	})

	return srv, nil
}
