package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/mw"
	"equipment-visualizer-backend/internal/store"
)

type equipmentRequest struct {
	Upload        *uint    `json:"upload" form:"upload"`
	EquipmentName *string  `json:"equipment_name" form:"equipment_name"`
	EquipmentType *string  `json:"equipment_type" form:"equipment_type"`
	Flowrate      *float64 `json:"flowrate" form:"flowrate"`
	Pressure      *float64 `json:"pressure" form:"pressure"`
	Temperature   *float64 `json:"temperature" form:"temperature"`
}

// apply copies the fields present in the request onto eq. When partial is
// false every field is required.
func (r *equipmentRequest) apply(eq *model.Equipment, partial bool) string {
	if !partial {
		var missing []string
		if r.Upload == nil {
			missing = append(missing, "upload")
		}
		if r.EquipmentName == nil {
			missing = append(missing, "equipment_name")
		}
		if r.EquipmentType == nil {
			missing = append(missing, "equipment_type")
		}
		if r.Flowrate == nil {
			missing = append(missing, "flowrate")
		}
		if r.Pressure == nil {
			missing = append(missing, "pressure")
		}
		if r.Temperature == nil {
			missing = append(missing, "temperature")
		}
		if len(missing) > 0 {
			return "Missing required fields: " + strings.Join(missing, ", ")
		}
	}

	if r.Upload != nil {
		eq.UploadID = *r.Upload
	}
	if r.EquipmentName != nil {
		eq.EquipmentName = strings.TrimSpace(*r.EquipmentName)
	}
	if r.EquipmentType != nil {
		t := model.EquipmentType(*r.EquipmentType)
		if !t.Valid() {
			return "Invalid equipment_type: " + *r.EquipmentType
		}
		eq.EquipmentType = t
	}
	if r.Flowrate != nil {
		eq.Flowrate = *r.Flowrate
	}
	if r.Pressure != nil {
		eq.Pressure = *r.Pressure
	}
	if r.Temperature != nil {
		eq.Temperature = *r.Temperature
	}
	return ""
}

func equipmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// ListEquipment handles GET /api/equipment/.
func (h *Handler) ListEquipment(c *gin.Context) {
	filter := store.EquipmentFilter{Type: model.EquipmentType(c.Query("equipment_type"))}
	if raw := c.Query("upload"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid upload: "+raw)
			return
		}
		filter.UploadID = uint(id)
	}

	items, err := h.store.ListEquipment(c.Request.Context(), mw.CurrentUser(c).ID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetEquipment handles GET /api/equipment/:id/.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.fail(c, store.ErrNotFound)
		return
	}
	eq, err := h.store.EquipmentForUser(c.Request.Context(), mw.CurrentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

// CreateEquipment handles POST /api/equipment/.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := bind(c, &req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	var eq model.Equipment
	if msg := req.apply(&eq, false); msg != "" {
		badRequest(c, msg)
		return
	}

	if err := h.store.CreateEquipment(c.Request.Context(), mw.CurrentUser(c).ID, &eq); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// UpdateEquipment handles PUT and PATCH /api/equipment/:id/. PATCH only
// touches the fields present in the body.
func (h *Handler) UpdateEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.fail(c, store.ErrNotFound)
		return
	}
	var req equipmentRequest
	if err := bind(c, &req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	userID := mw.CurrentUser(c).ID
	eq, err := h.store.EquipmentForUser(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if msg := req.apply(eq, c.Request.Method == http.MethodPatch); msg != "" {
		badRequest(c, msg)
		return
	}

	if err := h.store.UpdateEquipment(ctx, userID, eq); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

// DeleteEquipment handles DELETE /api/equipment/:id/.
func (h *Handler) DeleteEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		h.fail(c, store.ErrNotFound)
		return
	}
	if err := h.store.DeleteEquipment(c.Request.Context(), mw.CurrentUser(c).ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
