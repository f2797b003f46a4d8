package controllers

import (
	"github.com/gin-gonic/gin"

	"stratusdrive/services"
	"stratusdrive/utils"
)

type TrashController struct {
	trashService *services.TrashService
}

func NewTrashController(trashService *services.TrashService) *TrashController {
	return &TrashController{trashService: trashService}
}

// List returns the user's trash: the roots of trashed subtrees with
// their scheduled auto-purge times.
func (tc *TrashController) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	entries, err := tc.trashService.ListTrash(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Failed to list trash")
		return
	}
	utils.SuccessResponse(c, "Trash retrieved successfully", entries)
}

// Empty permanently removes everything in the user's trash.
func (tc *TrashController) Empty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	removed, err := tc.trashService.EmptyTrash(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Failed to empty trash")
		return
	}
	utils.SuccessResponse(c, "Trash emptied successfully", gin.H{"removed": removed})
}
