package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/handler"
	"github.com/noah-isme/mannsetu-api/internal/middleware"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	"github.com/noah-isme/mannsetu-api/internal/service"
	"github.com/noah-isme/mannsetu-api/pkg/config"
	"github.com/noah-isme/mannsetu-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mannsetu-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mannsetu-api/pkg/middleware/requestid"
)

type routes struct {
	auth      *handler.AuthHandler
	student   *handler.StudentHandler
	booking   *handler.BookingHandler
	counselor *handler.CounselorHandler
	institute *handler.InstituteHandler
	peer      *handler.PeerHandler
	relay     *handler.RelayHandler
	admin     *handler.AdminHandler
	metrics   *handler.MetricsHandler
	files     *handler.FilesHandler
	tokens    *service.AuthService
	audit     *repository.UserRepository
	limiter   *middleware.IPRateLimiter
	metricsMW *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(h.metricsMW))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	relay := r.Group("/functions", corsmiddleware.Permissive(), middleware.RateLimit(h.limiter, logr))
	relay.Any("/generate-ai-response", h.relay.Generate)

	if h.files != nil {
		r.GET("/files/:token", h.files.Download)
	}

	api := r.Group(cfg.APIPrefix, corsmiddleware.New(cfg.CORS.AllowedOrigins))
	authed := middleware.JWT(h.tokens)

	api.GET("/institutes/public", h.auth.PublicInstitutes)
	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)
	auth.POST("/signup/student", h.auth.SignupStudent)
	auth.POST("/signup/institute", h.auth.SignupInstitute)
	auth.POST("/logout", authed, h.auth.Logout)
	auth.POST("/change-password", authed, h.auth.ChangePassword)
	api.GET("/me", authed, h.auth.Me)
	api.GET("/chat/history", authed, h.relay.History)

	student := api.Group("/student", authed, middleware.RequireRoles(models.RoleStudent))
	student.GET("/dashboard", h.student.Dashboard)
	student.POST("/screenings/phq9", h.student.SubmitPHQ)
	student.POST("/screenings/gad7", h.student.SubmitGAD)
	student.POST("/moods", h.student.LogMood)
	student.PUT("/focus", h.student.UpdateFocus)
	student.POST("/reminders", h.student.AddReminder)
	student.PATCH("/reminders/:id/toggle", h.student.ToggleReminder)
	student.DELETE("/reminders/:id", h.student.DeleteReminder)
	student.POST("/bookings/:id/cancel", h.student.CancelBooking)
	student.GET("/counselors", h.booking.Counselors)
	student.GET("/counselors/:counselorId/slots", h.booking.Slots)
	student.POST("/bookings", h.booking.Create)

	counselor := api.Group("/counselor", authed, middleware.RequireRoles(models.RoleCounselor))
	decision := middleware.Audit(h.audit, logr, models.AuditActionBookingDecision, "booking")
	counselor.GET("/bookings", h.counselor.Bookings)
	counselor.GET("/bookings/export", h.counselor.Export)
	counselor.POST("/bookings/:id/approve", decision, h.counselor.Approve)
	counselor.POST("/bookings/:id/reject", decision, h.counselor.Reject)

	institute := api.Group("/institute", authed, middleware.RequireRoles(models.RoleInstitute))
	institute.GET("/overview", h.institute.Overview)
	institute.POST("/counselors", h.institute.CreateCounselor)
	institute.PATCH("/counselors/:id/status", h.institute.UpdateCounselorStatus)
	institute.GET("/counselors/:id/availability", h.institute.GetAvailability)
	institute.PUT("/counselors/:id/availability", h.institute.UpdateAvailability)
	institute.POST("/counselors/:id/slots/generate", h.institute.GenerateSlots)

	peer := api.Group("/peer", authed, middleware.RequireRoles(models.RoleStudent))
	peer.GET("/forums", h.peer.Forums)
	peer.GET("/posts", h.peer.Posts)
	peer.POST("/posts", h.peer.CreatePost)
	peer.GET("/posts/:id/replies", h.peer.Replies)
	peer.POST("/posts/:id/replies", h.peer.CreateReply)
	peer.POST("/posts/:id/reactions/toggle", h.peer.ToggleReaction)

	admin := api.Group("/admin", authed, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/institutes", h.admin.Institutes)
	admin.PATCH("/institutes/:id/verify", h.admin.Verify)
	admin.GET("/institutes/:id/document", h.admin.Document)
	admin.GET("/metrics", h.admin.Metrics)

	return r
}
