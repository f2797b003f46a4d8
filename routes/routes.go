package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"stratusdrive/services"
	"stratusdrive/store"
)

// ContainerOptions carries the tuning knobs the services need.
type ContainerOptions struct {
	DefaultStorageLimit int64
	MaxFileSize         int64
	TrashRetention      time.Duration
	NameCaseInsensitive bool
}

// ServiceContainer wires the stores into the service graph once, so
// route registration and the background jobs share the same instances.
type ServiceContainer struct {
	QuotaService  *services.QuotaService
	TreeService   *services.TreeService
	TrashService  *services.TrashService
	SearchService *services.SearchService
	UploadService *services.UploadService
}

func NewServiceContainer(nodes store.NodeStore, accounts store.AccountStore, content services.ContentStore, opts ContainerOptions) (*ServiceContainer, error) {
	validator := services.NewValidator(nodes, opts.NameCaseInsensitive)
	locks := services.NewOwnerLocks()

	quotaService, err := services.NewQuotaService(accounts, nodes, opts.DefaultStorageLimit)
	if err != nil {
		return nil, err
	}

	trashService := services.NewTrashService(nodes, quotaService, content, validator, locks, opts.TrashRetention)
	treeService := services.NewTreeService(nodes, quotaService, validator, trashService, locks)
	searchService := services.NewSearchService(nodes)
	uploadService := services.NewUploadService(treeService, quotaService, content, opts.MaxFileSize)

	return &ServiceContainer{
		QuotaService:  quotaService,
		TreeService:   treeService,
		TrashService:  trashService,
		SearchService: searchService,
		UploadService: uploadService,
	}, nil
}

// SetupRoutes registers every API route group under api.
func SetupRoutes(api *gin.RouterGroup, jwtSecret string, container *ServiceContainer) {
	RegisterFileRoutes(api, jwtSecret, container)
	RegisterTrashRoutes(api, jwtSecret, container)
	RegisterStorageRoutes(api, jwtSecret, container)
}
