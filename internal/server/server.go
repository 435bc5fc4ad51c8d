package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tapcard/internal/config"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/tapcard/internal/payment/domain"
	terminaldomain "github.com/smallbiznis/tapcard/internal/terminal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	PaymentSvc  paymentdomain.Service
	CustomerSvc customerdomain.Service
	TerminalSvc terminaldomain.Service
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	paymentSvc  paymentdomain.Service
	customerSvc customerdomain.Service
	terminalSvc terminaldomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		paymentSvc:  p.PaymentSvc,
		customerSvc: p.CustomerSvc,
		terminalSvc: p.TerminalSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	payments := s.engine.Group("/payments", s.TerminalAuthRequired())
	payments.POST("/intents", s.CreatePaymentIntent)
	payments.PATCH("/intents/:id", s.UpdatePaymentIntent)
	payments.POST("/intents/:id/capture", s.CapturePayment)
	payments.POST("/intents/:id/apply-redemption", s.ApplyRedemption)
	payments.POST("/intents/:id/capture-with-redemption", s.CaptureWithRedemption)

	customers := s.engine.Group("/customers")
	customers.POST("/lookup-by-payment", s.TerminalAuthRequired(), s.LookupByPayment)
	customers.POST("/register", s.RegisterCustomer)

	terminal := s.engine.Group("/terminal")
	terminal.POST("/pair", s.PairTerminal)
	terminal.POST("/validate", s.ValidateTerminal)
	terminal.POST("/pairing-codes", s.AdminAuthRequired(), s.GeneratePairingCode)

	// Refunds are initiated on the dashboard side; this only records them.
	s.engine.POST("/payments/intents/:id/refund", s.AdminAuthRequired(), s.RefundPayment)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
