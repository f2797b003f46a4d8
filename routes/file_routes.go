package routes

import (
	"github.com/gin-gonic/gin"

	"stratusdrive/controllers"
	"stratusdrive/middleware"
)

func RegisterFileRoutes(rg *gin.RouterGroup, jwtSecret string, container *ServiceContainer) {
	nodeController := controllers.NewNodeController(container.TreeService, container.TrashService, container.QuotaService)
	uploadController := controllers.NewUploadController(container.UploadService)
	searchController := controllers.NewSearchController(container.SearchService)

	files := rg.Group("/files")
	files.Use(middleware.AuthMiddleware(jwtSecret))
	{
		files.GET("/list", nodeController.List)           // GET /files/list?parent_id=&trashed=&type=
		files.POST("/upload", uploadController.Upload)    // POST /files/upload (multipart)
		files.POST("/folders", nodeController.CreateFolder)
		files.GET("/search", searchController.Search)     // GET /files/search?q=
		files.GET("/recent", searchController.Recent)     // GET /files/recent?limit=

		files.DELETE("/:id", nodeController.Delete)       // DELETE /files/:id?permanent=
		files.POST("/:id/restore", nodeController.Restore)
		files.POST("/:id/move", nodeController.Move)
		files.PUT("/:id/rename", nodeController.Rename)
		files.GET("/:id/download", uploadController.Download)
	}
}
