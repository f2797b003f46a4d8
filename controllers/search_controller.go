package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"
)

type SearchController struct {
	searchService *services.SearchService
}

func NewSearchController(searchService *services.SearchService) *SearchController {
	return &SearchController{searchService: searchService}
}

// Search finds active items whose name contains the query. An empty
// query returns everything the user has.
func (sc *SearchController) Search(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	nodes, err := sc.searchService.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		handleError(c, err, "Search failed")
		return
	}
	utils.SuccessResponse(c, "Search completed successfully", models.Views(nodes))
}

// Recent returns the user's most recently updated files.
func (sc *SearchController) Recent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.BadRequestResponse(c, "Invalid limit", nil)
			return
		}
	}

	nodes, err := sc.searchService.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err, "Failed to retrieve recent files")
		return
	}
	utils.SuccessResponse(c, "Recent files retrieved successfully", models.Views(nodes))
}
