package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teblo/teblo/internal/audit"
	auditdomain "github.com/teblo/teblo/internal/audit/domain"
	"github.com/teblo/teblo/internal/auth"
	"github.com/teblo/teblo/internal/client"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
	"github.com/teblo/teblo/internal/config"
	"github.com/teblo/teblo/internal/invoice"
	invoicedomain "github.com/teblo/teblo/internal/invoice/domain"
	obstracing "github.com/teblo/teblo/internal/observability/tracing"
	"github.com/teblo/teblo/internal/providers/pdf"
	"github.com/teblo/teblo/internal/settings"
	settingsdomain "github.com/teblo/teblo/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	audit.Module,
	client.Module,
	settings.Module,
	pdf.Module,
	invoice.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	verifier    *auth.Verifier
	clientSvc   clientdomain.Service
	invoiceSvc  invoicedomain.Service
	settingsSvc settingsdomain.Service
	auditSvc    auditdomain.Service
	pdfProvider pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Verifier    *auth.Verifier
	ClientSvc   clientdomain.Service
	InvoiceSvc  invoicedomain.Service
	SettingsSvc settingsdomain.Service
	AuditSvc    auditdomain.Service
	PDFProvider pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		verifier:    p.Verifier,
		clientSvc:   p.ClientSvc,
		invoiceSvc:  p.InvoiceSvc,
		settingsSvc: p.SettingsSvc,
		auditSvc:    p.AuditSvc,
		pdfProvider: p.PDFProvider,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id/items", s.ReplaceInvoiceItems)
	api.POST("/invoices/:id/payments", s.RecordInvoicePayment)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/invoices/:id/convert", s.ConvertInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PATCH("/settings", s.UpdateSettings)

	// -------- Audit logs --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
