package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/planogram"
	"orderdesk/internal/service"
	"orderdesk/pkg/response"
)

type PlanogramHandler struct {
	planograms service.PlanogramService
}

func NewPlanogramHandler(planograms service.PlanogramService) *PlanogramHandler {
	return &PlanogramHandler{planograms: planograms}
}

func (h *PlanogramHandler) RegisterRoutes(router *gin.RouterGroup) {
	planograms := router.Group("/api/planograms")
	{
		planograms.GET("/:id/grid", h.GetGrid)
		planograms.POST("/grid/quantity", h.SetQuantity)
	}
}

type SetQuantityRequest struct {
	Grid   planogram.Grid `json:"grid"`
	Row    *int           `json:"row" binding:"required"`
	Column *int           `json:"column" binding:"required"`
	Value  int            `json:"value"`
}

// GetGrid builds the 10x10 grid of a planogram
// @Summary      Planogram grid
// @Description  Builds the grid for a planogram. Use "active" as id for the active planogram. With order_id the cells carry that order's quantities.
// @Tags         planograms
// @Produce      json
// @Param        id        path      string  true   "Planogram ID or active"
// @Param        order_id  query     string  false  "Order ID"
// @Success      200       {object}  response.Response{data=service.GridView}
// @Failure      404       {object}  response.Response
// @Router       /api/planograms/{id}/grid [get]
func (h *PlanogramHandler) GetGrid(c *gin.Context) {
	view, err := h.planograms.BuildGrid(c.Request.Context(), c.Param("id"), c.Query("order_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// SetQuantity sets one cell's quantity on a posted grid
// @Summary      Set grid quantity
// @Description  Returns the grid with the cell quantity replaced (negative values become 0) and the recomputed summary.
// @Tags         planograms
// @Accept       json
// @Produce      json
// @Param        payload  body      SetQuantityRequest  true  "Grid and cell"
// @Success      200      {object}  response.Response{data=service.GridView}
// @Failure      400      {object}  response.Response
// @Router       /api/planograms/grid/quantity [post]
func (h *PlanogramHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	view, err := h.planograms.SetQuantity(req.Grid, *req.Row, *req.Column, req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}
