package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ccm-system/internal/controllers"
	"ccm-system/internal/repositories"
	"ccm-system/internal/services"
	"ccm-system/pkg/config"
	"ccm-system/pkg/filestorage"
	"ccm-system/pkg/middleware"
	"ccm-system/pkg/service"
)

// InitRouter wires repositories, services and controllers and registers all
// routes. Report and auth endpoints keep their historical top-level aliases
// next to the /api forms because deployed panels call both.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) error {
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Server.UploadsDir)
	if err != nil {
		return err
	}

	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	userRepo := repositories.NewUserRepository(dbConn, logger)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn)
	logRepo := repositories.NewEquipmentLogRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)

	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, cfg.Auth, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, logRepo, cacheRepo, txManager, cfg.Cache.StatusCountsTTL, logger)
	reportService := services.NewReportService(reportRepo, fileStorage, logger)

	authCtrl := controllers.NewAuthController(authService, logger)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)
	reportCtrl := controllers.NewReportController(reportService, logger)

	runAuthRouter(e, authCtrl)
	runEquipmentRouter(e, equipmentCtrl, authMW)
	runReportRouter(e, reportCtrl, authMW)
	return nil
}

func runAuthRouter(e *echo.Echo, ctrl *controllers.AuthController) {
	auth := e.Group("/auth")
	auth.POST("/login", ctrl.Login)
	auth.POST("/verify_username", ctrl.VerifyUsername)
	auth.POST("/reset_password_no_auth", ctrl.ResetPassword)

	e.POST("/register", ctrl.Register)
}

func runEquipmentRouter(e *echo.Echo, ctrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	api := e.Group("/api", authMW.Auth)

	api.GET("/equipment", ctrl.List)
	api.GET("/equipment/status_counts", ctrl.StatusCounts)
	api.POST("/equipment", ctrl.Create)
	api.PUT("/equipment/batch", ctrl.BatchUpdate)
	api.PUT("/equipment/:ccm_id", ctrl.Update)
	api.DELETE("/equipment/:id", ctrl.ForceDelete)
	api.GET("/equipment/logs/:ccm_id", ctrl.Logs)

	// Legacy alias: the create form posts to the bare path.
	e.POST("/equipment", ctrl.Create, authMW.Auth)
}

func runReportRouter(e *echo.Echo, ctrl *controllers.ReportController, authMW *middleware.AuthMiddleware) {
	api := e.Group("/api", authMW.Auth)

	api.GET("/reports", ctrl.List)
	api.POST("/report/upload", ctrl.Upload)
	api.PUT("/report/:id", ctrl.UpdateProcessing)
	api.DELETE("/report/:id", ctrl.Delete)

	// Legacy aliases used by the report list page.
	e.PUT("/report/:id", ctrl.UpdateProcessing, authMW.Auth)
	e.DELETE("/report/:id", ctrl.Delete, authMW.Auth)
}
