package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/pda-bills-api/internal/handler"
	internalmiddleware "github.com/noah-isme/pda-bills-api/internal/middleware"
	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/internal/service"
	"github.com/noah-isme/pda-bills-api/pkg/config"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pda-bills-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pda-bills-api/pkg/middleware/requestid"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

type routerDeps struct {
	auth      *service.AuthService
	metrics   *service.MetricsService
	bills     *handler.BillHandler
	artifacts *handler.ArtifactHandler
	balances  *handler.BalanceHandler
	employees *handler.EmployeeHandler
	tokens    *handler.AuthHandler
	health    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Secure(cfg.Security, cfg.Env))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Env != config.EnvProduction {
		api.POST("/dev/token", deps.tokens.DevToken)
	}
	if deps.artifacts != nil {
		// the signed token is the credential here
		api.GET("/artifacts/download", deps.artifacts.Download)
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(deps.auth))

	bills := secured.Group("/bills")
	bills.POST("", deps.bills.Submit)
	bills.GET("", deps.bills.List)
	bills.GET("/:id", deps.bills.Get)
	bills.PUT("/:id", deps.bills.Edit)
	bills.POST("/:id/actions", deps.bills.Act)
	bills.GET("/:id/artifact", deps.bills.Artifacts)
	bills.DELETE("/:id", internalmiddleware.RequireRoles(models.RoleAdmin), deps.bills.Delete)

	balances := secured.Group("/balances")
	balances.GET("/me", deps.balances.Me)
	balances.GET("/:employeeId",
		internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleFinanceAdmin), internalmiddleware.Self),
		deps.balances.Get)
	balances.GET("/:employeeId/entries",
		internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleFinanceAdmin), internalmiddleware.Self),
		deps.balances.Entries)
	balances.PUT("/:employeeId", internalmiddleware.RequireRoles(models.RoleAdmin), deps.balances.Provision)

	employees := secured.Group("/employees")
	employees.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	employees.GET("", deps.employees.List)
	employees.POST("", deps.employees.Create)
	employees.GET("/:id", deps.employees.Get)
	employees.PUT("/:id", deps.employees.Update)
	employees.DELETE("/:id", deps.employees.Delete)

	secured.GET("/metrics/summary",
		internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleFinanceAdmin),
		deps.health.Summary)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}
