package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.PUT("/update", h.update)
	rg.DELETE("/delete_data", h.deleteData)
	rg.GET("/uploads_history", h.history)
}

func (h *Handler) upload(c *gin.Context) {
	in, file, ok := h.readFile(c)
	if !ok {
		return
	}
	defer file.Close()
	doc, err := h.Svc.Upload(c.Request.Context(), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, uploadResponse{
		Message:     "File uploaded and text extracted successfully",
		UUID:        doc.UserID,
		FileName:    doc.FileName,
		UploadDate:  doc.UploadedAt,
		LastUpdated: doc.LastUpdated,
	})
}

func (h *Handler) update(c *gin.Context) {
	in, file, ok := h.readFile(c)
	if !ok {
		return
	}
	defer file.Close()
	res, err := h.Svc.Update(c.Request.Context(), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, updateResponse{
		Message:     fmt.Sprintf("Data appended successfully by %s", res.UserName),
		UUID:        in.UserID,
		FileName:    in.FileName,
		LastUpdated: res.Document.LastUpdated,
	})
}

func (h *Handler) deleteData(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	n, err := h.Svc.DeleteData(c.Request.Context(), userID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	msg := fmt.Sprintf("Data for UUID '%s' has been deleted!", userID)
	if n == 0 {
		msg = fmt.Sprintf("No PDF data found for UUID '%s'", userID)
	}
	respond.JSON(c, http.StatusCreated, deleteDataResponse{Message: msg, DeletedDocuments: n})
}

func (h *Handler) history(c *gin.Context) {
	hist, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, historyResponse{
		FileName:     hist.Latest.FileName,
		UploadDate:   hist.Latest.UploadedAt,
		LastUpdated:  hist.Latest.LastUpdated,
		TotalUploads: hist.TotalUploads,
	})
}

// readFile pulls the "file" part from a multipart body. The caller closes the
// returned file once the service is done with it.
func (h *Handler) readFile(c *gin.Context) (FileInput, io.Closer, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxBytes()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Err(c, h.Svc.tooLarge())
			return FileInput{}, nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return FileInput{}, nil, false
	}
	c.Set("fileName", fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return FileInput{}, nil, false
	}
	return FileInput{
		UserID:      middleware.UserIDFromContext(c),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, file, true
}
