package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskhub/taskhub-api/internal/errors"
	"github.com/taskhub/taskhub-api/internal/services"
)

type FileHandler struct {
	attachmentService *services.AttachmentService
}

func NewFileHandler(attachmentService *services.AttachmentService) *FileHandler {
	return &FileHandler{
		attachmentService: attachmentService,
	}
}

// UploadFiles attaches one or more uploaded files to a task. Files are sent
// as multipart form data under the "files" field.
func (h *FileHandler) UploadFiles(c *gin.Context) {
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	headers := form.File["files"]
	files := make([]services.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			apierrors.BadRequest(c, "Failed to read uploaded file")
			return
		}
		defer f.Close()

		files = append(files, services.UploadFile{
			OriginalName: header.Filename,
			Mimetype:     header.Header.Get("Content-Type"),
			Size:         header.Size,
			Reader:       f,
		})
	}

	attachments, err := h.attachmentService.Upload(taskID, files)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Files uploaded successfully", gin.H{
		"files": attachments,
	})
}

// GetTaskFiles lists a task's attachments
func (h *FileHandler) GetTaskFiles(c *gin.Context) {
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"files": attachments,
	})
}

// DownloadFile streams an attachment with its recorded mimetype and original
// filename
func (h *FileHandler) DownloadFile(c *gin.Context) {
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}
	filename := c.Param("filename")

	attachment, reader, size, err := h.attachmentService.Download(taskID, filename)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.OriginalName))
	c.DataFromReader(http.StatusOK, size, attachment.Mimetype, reader, nil)
}

// DeleteFile removes an attachment record and best-effort deletes its blob
func (h *FileHandler) DeleteFile(c *gin.Context) {
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}
	filename := c.Param("filename")

	attachment, err := h.attachmentService.Delete(taskID, filename)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "File deleted successfully", gin.H{
		"deletedFile": attachment,
	})
}
