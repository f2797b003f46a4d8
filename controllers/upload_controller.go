package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/services"
	"stratusdrive/utils"
)

type UploadController struct {
	uploadService *services.UploadService
}

func NewUploadController(uploadService *services.UploadService) *UploadController {
	return &UploadController{uploadService: uploadService}
}

// Upload accepts one or more files from a multipart form and commits
// each into the target folder. Files are processed independently: one
// failing does not roll back the others.
func (uc *UploadController) Upload(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	parentID, err := parseOptionalParentID(c.PostForm("parent_id"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No files provided", nil)
		return
	}

	var uploaded []models.NodeView
	var failed []gin.H
	var firstErr error
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			failed = append(failed, gin.H{"name": fileHeader.Filename, "error": "failed to read file"})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		node, err := uc.uploadService.Upload(c.Request.Context(), userID, parentID, fileHeader.Filename, src, fileHeader.Size)
		src.Close()
		if err != nil {
			failed = append(failed, gin.H{"name": fileHeader.Filename, "error": err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		uploaded = append(uploaded, node.View())
	}

	if len(uploaded) == 0 {
		if len(files) == 1 {
			// Single-file uploads keep the precise failure status.
			handleError(c, firstErr, "Failed to upload file")
			return
		}
		utils.BadRequestResponse(c, "All uploads failed", failed)
		return
	}

	utils.CreatedResponse(c, fmt.Sprintf("Uploaded %d of %d files", len(uploaded), len(files)), gin.H{
		"uploaded": uploaded,
		"failed":   failed,
	})
}

// Download streams a file's content back to the client.
func (uc *UploadController) Download(c *gin.Context) {
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

	node, content, err := uc.uploadService.Download(c.Request.Context(), userID, nodeID)
	if err != nil {
		handleError(c, err, "Failed to download file")
		return
	}
	defer content.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename=%q`, node.Name),
	}
	c.DataFromReader(200, node.Size, node.MimeType, content, headers)
}
