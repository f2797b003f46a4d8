package routes

import (
	"github.com/gin-gonic/gin"

	"stratusdrive/controllers"
	"stratusdrive/middleware"
)

func RegisterTrashRoutes(rg *gin.RouterGroup, jwtSecret string, container *ServiceContainer) {
	trashController := controllers.NewTrashController(container.TrashService)

	trash := rg.Group("/trash")
	trash.Use(middleware.AuthMiddleware(jwtSecret))
	{
		trash.GET("", trashController.List)
		trash.DELETE("", trashController.Empty)
	}
}
