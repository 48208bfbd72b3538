package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
	"orderdesk/internal/service"
	"orderdesk/pkg/response"
)

// statusFor maps service and gateway errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrPODNotFound),
		errors.Is(err, service.ErrPlanogramNotFound),
		errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrVersionConflict),
		errors.Is(err, gateway.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidPOD),
		errors.Is(err, model.ErrUnknownStatus):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
