package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/services"
	"stratusdrive/utils"
)

// getUserID pulls the authenticated user's id set by the auth
// middleware.
func getUserID(c *gin.Context) (primitive.ObjectID, error) {
	v, exists := c.Get("userId")
	if !exists {
		return primitive.NilObjectID, fmt.Errorf("user not authenticated")
	}

	userID, ok := v.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("invalid user ID format")
	}
	return userID, nil
}

// parseOptionalParentID turns a request-supplied parent id into the
// service form: empty means the root level.
func parseOptionalParentID(raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid parent ID format")
	}
	return &id, nil
}

// handleError maps a service failure to its HTTP status. Each domain
// outcome keeps its own status so clients can tell them apart.
func handleError(c *gin.Context, err error, defaultMessage string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Item not found")
	case errors.Is(err, services.ErrNameConflict):
		utils.ConflictResponse(c, "An item with this name already exists here", err.Error())
	case errors.Is(err, services.ErrCyclicMove):
		utils.UnprocessableResponse(c, "Cannot move a folder into its own subtree")
	case errors.Is(err, services.ErrQuotaExceeded):
		utils.InsufficientStorageResponse(c, "Storage limit exceeded")
	case errors.Is(err, services.ErrInvalidState):
		utils.UnprocessableResponse(c, "Operation not valid for this item's current state")
	case errors.Is(err, services.ErrFileTooLarge):
		utils.PayloadTooLargeResponse(c, "File exceeds the maximum allowed size")
	case errors.Is(err, services.ErrContentWriteFailed):
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to store file content", err.Error())
	default:
		utils.InternalServerErrorResponse(c, defaultMessage, err.Error())
	}
}
