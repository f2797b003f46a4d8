package routes

import (
	"github.com/gin-gonic/gin"

	"stratusdrive/controllers"
	"stratusdrive/middleware"
)

func RegisterStorageRoutes(rg *gin.RouterGroup, jwtSecret string, container *ServiceContainer) {
	nodeController := controllers.NewNodeController(container.TreeService, container.TrashService, container.QuotaService)

	storage := rg.Group("/storage")
	storage.Use(middleware.AuthMiddleware(jwtSecret))
	{
		storage.GET("/summary", nodeController.StorageSummary)
	}
}
