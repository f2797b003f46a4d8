package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"
)

type NodeController struct {
	treeService  *services.TreeService
	trashService *services.TrashService
	quotaService *services.QuotaService
}

func NewNodeController(treeService *services.TreeService, trashService *services.TrashService, quotaService *services.QuotaService) *NodeController {
	return &NodeController{
		treeService:  treeService,
		trashService: trashService,
		quotaService: quotaService,
	}
}

// List returns the contents of a folder (or the root level), folders
// before files, together with the owner's storage summary. trashed=true
// switches to the trash view instead.
func (nc *NodeController) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	summary, err := nc.quotaService.Summary(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Failed to retrieve storage summary")
		return
	}

	if c.Query("trashed") == "true" {
		entries, err := nc.trashService.ListTrash(c.Request.Context(), userID)
		if err != nil {
			handleError(c, err, "Failed to list trash")
			return
		}
		utils.SuccessResponse(c, "Trash retrieved successfully", gin.H{
			"items":        entries,
			"storage_info": summary,
		})
		return
	}

	parentID, err := parseOptionalParentID(c.Query("parent_id"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	nodes, err := nc.treeService.List(c.Request.Context(), userID, parentID, c.Query("type"))
	if err != nil {
		handleError(c, err, "Failed to list items")
		return
	}
	utils.SuccessResponse(c, "Items retrieved successfully", gin.H{
		"items":        models.Views(nodes),
		"storage_info": summary,
	})
}

func (nc *NodeController) CreateFolder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	var req struct {
		Name     string  `json:"name" binding:"required,min=1,max=255"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	var parentRaw string
	if req.ParentID != nil {
		parentRaw = *req.ParentID
	}
	parentID, err := parseOptionalParentID(parentRaw)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	folder, err := nc.treeService.CreateFolder(c.Request.Context(), userID, parentID, req.Name)
	if err != nil {
		handleError(c, err, "Failed to create folder")
		return
	}
	utils.CreatedResponse(c, "Folder created successfully", folder.View())
}

func (nc *NodeController) Rename(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}
	nodeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID format", nil)
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	node, err := nc.treeService.Rename(c.Request.Context(), userID, nodeID, req.Name)
	if err != nil {
		handleError(c, err, "Failed to rename item")
		return
	}
	utils.SuccessResponse(c, "Item renamed successfully", node.View())
}

func (nc *NodeController) Move(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}
	nodeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID format", nil)
		return
	}

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	var parentRaw string
	if req.ParentID != nil {
		parentRaw = *req.ParentID
	}
	parentID, err := parseOptionalParentID(parentRaw)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	node, err := nc.treeService.Move(c.Request.Context(), userID, nodeID, parentID)
	if err != nil {
		handleError(c, err, "Failed to move item")
		return
	}
	utils.SuccessResponse(c, "Item moved successfully", node.View())
}

// Delete sends an item to the trash, or removes it permanently when
// permanent=true.
func (nc *NodeController) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}
	nodeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID format", nil)
		return
	}

	permanent := c.Query("permanent") == "true"
	if err := nc.treeService.Delete(c.Request.Context(), userID, nodeID, permanent); err != nil {
		handleError(c, err, "Failed to delete item")
		return
	}

	if permanent {
		utils.SuccessResponse(c, "Item permanently deleted", nil)
		return
	}
	utils.SuccessResponse(c, "Item moved to trash", nil)
}

func (nc *NodeController) Restore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}
	nodeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID format", nil)
		return
	}

	node, err := nc.trashService.Restore(c.Request.Context(), userID, nodeID)
	if err != nil {
		handleError(c, err, "Failed to restore item")
		return
	}
	utils.SuccessResponse(c, "Item restored successfully", node.View())
}

func (nc *NodeController) StorageSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	summary, err := nc.quotaService.Summary(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Failed to retrieve storage summary")
		return
	}
	utils.SuccessResponse(c, "Storage summary retrieved successfully", summary)
}
