package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"equipment-visualizer-backend/internal/mw"
	"equipment-visualizer-backend/internal/report"
	"equipment-visualizer-backend/internal/store"
)

type renderFunc func(w io.Writer, d *report.Data) error

// GeneratePDF streams the PDF report of the selected upload.
func (h *Handler) GeneratePDF(c *gin.Context) {
	h.generate(c, "pdf", "application/pdf", report.RenderPDF)
}

// GenerateXLSX streams the same report as a workbook.
func (h *Handler) GenerateXLSX(c *gin.Context) {
	h.generate(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.RenderXLSX)
}

func (h *Handler) generate(c *gin.Context, ext, contentType string, render renderFunc) {
	uploadID, err := requestedUploadID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	data, err := h.analytics.ReportData(c.Request.Context(), mw.CurrentUser(c).ID, uploadID)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(data.Upload.ID, data.GeneratedAt, ext)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// requestedUploadID looks for upload_id in the path, the query string and,
// for POST, the JSON or form body. Absent or null means "latest"; a value
// that is not an id can never match an upload.
func requestedUploadID(c *gin.Context) (*uint, error) {
	raw := c.Param("upload_id")
	if raw == "" {
		raw = c.Query("upload_id")
	}
	if raw == "" && c.Request.Method == http.MethodPost {
		if c.ContentType() == gin.MIMEJSON {
			var body struct {
				UploadID json.RawMessage `json:"upload_id"`
			}
			if err := c.ShouldBindJSON(&body); err != nil && err != io.EOF {
				return nil, store.ErrNotFound
			}
			raw = strings.Trim(string(body.UploadID), `"`)
			if raw == "null" {
				raw = ""
			}
		} else {
			raw = c.PostForm("upload_id")
		}
	}
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, store.ErrNotFound
	}
	v := uint(id)
	return &v, nil
}
