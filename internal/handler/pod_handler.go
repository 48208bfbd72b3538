package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/middleware"
	"orderdesk/internal/service"
	"orderdesk/pkg/response"
)

type PODHandler struct {
	mutations service.MutationService
}

func NewPODHandler(mutations service.MutationService) *PODHandler {
	return &PODHandler{mutations: mutations}
}

func (h *PODHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/invoices/:id/pod", h.UploadPOD)
	router.PUT("/api/pods/:id/validate", h.ValidatePOD)
}

// UploadPOD attaches a proof of delivery to an invoice and completes the order
// @Summary      Upload POD
// @Description  Accepts a multipart "file" field or a JSON body with dataUrl or fileName. Images only, 5MB max.
// @Tags         pods
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "Invoice ID"
// @Param        file     formData  file                       false  "POD image"
// @Param        payload  body      service.UploadPODRequest   false  "POD reference"
// @Success      201      {object}  response.Response{data=model.POD}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/invoices/{id}/pod [post]
func (h *PODHandler) UploadPOD(c *gin.Context) {
	var req service.UploadPODRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "Missing file field")
			return
		}
		if fh.Size > service.MaxPODSize {
			badRequest(c, fmt.Sprintf("File exceeds %d bytes", service.MaxPODSize))
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "Unreadable file")
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, service.MaxPODSize+1))
		if err != nil {
			badRequest(c, "Unreadable file")
			return
		}
		req.Image = data
		req.FileName = fh.Filename
		req.UploadedBy = c.PostForm("uploadedBy")
	} else if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	req.InvoiceID = c.Param("id")

	pod, err := h.mutations.UploadPOD(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, pod))
}

// ValidatePOD marks a POD as checked
// @Summary      Validate POD
// @Tags         pods
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "POD ID"
// @Success      200  {object}  response.Response{data=model.POD}
// @Failure      404  {object}  response.Response
// @Router       /api/pods/{id}/validate [put]
func (h *PODHandler) ValidatePOD(c *gin.Context) {
	pod, err := h.mutations.ValidatePOD(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pod))
}
