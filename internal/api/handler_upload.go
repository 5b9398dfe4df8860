package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-visualizer-backend/internal/ingest"
	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/mw"
)

// multipart overhead allowed on top of the file itself
const uploadBodySlack = 1 << 20

type uploadResponse struct {
	model.Upload
	EquipmentCount int `json:"equipment_count"`
	SkippedRows    int `json:"skipped_rows"`
}

// UploadCSV ingests the multipart "file" field for the current user.
func (h *Handler) UploadCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ingest.MaxUploadBytes+uploadBodySlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "File size must be less than 5MB")
			return
		}
		badRequest(c, "No file was submitted.")
		return
	}
	if err := ingest.ValidateFile(fh.Filename, fh.Size); err != nil {
		badRequest(c, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	user := mw.CurrentUser(c)
	res, err := h.ingest.Ingest(c.Request.Context(), user.ID, fh.Filename, fh.Size, f)
	if err != nil {
		var vErr *ingest.ValidationError
		var pErr *ingest.ProcessingError
		if errors.As(err, &vErr) || errors.As(err, &pErr) {
			badRequest(c, err.Error())
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		Upload:         res.Upload,
		EquipmentCount: res.EquipmentCount,
		SkippedRows:    res.SkippedRows,
	})
}
