package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability"
	obsmiddleware "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/logger"
	obsmetrics "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/metrics"
	obstracing "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/tracing"
	reportconfigdomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/telemetry/correlation"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Base:            log,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(correlationMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// correlationMiddleware adopts a caller supplied run id and echoes it back.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := correlation.WithRunID(c.Request.Context(), c.GetHeader(correlation.Header))
		if id := correlation.RunID(ctx); id != "" {
			c.Header(correlation.Header, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func registerGin(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	dreSvc     dredomain.Service
	profileSvc reportconfigdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	DRE        dredomain.Service
	ProfileSvc reportconfigdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		dreSvc:     p.DRE,
		profileSvc: p.ProfileSvc,
	}
	svc.registerAPIRoutes()
	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/dre")

	reports := api.Group("/reports")
	reports.POST("/preview", s.PreviewReport)
	reports.POST("", s.GenerateReport)
	reports.GET("", s.ListReports)
	reports.GET("/:id", s.GetReport)
	reports.POST("/:id/finalize", s.FinalizeReport)

	profiles := api.Group("/profiles")
	profiles.POST("", s.CreateProfile)
	profiles.GET("", s.ListProfiles)
	profiles.GET("/:id", s.GetProfile)
	profiles.PATCH("/:id", s.UpdateProfile)
	profiles.DELETE("/:id", s.DeleteProfile)
	profiles.POST("/:id/default", s.SetDefaultProfile)
}
