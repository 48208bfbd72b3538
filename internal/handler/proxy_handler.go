package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"orderdesk/pkg/response"
)

var proxyMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut,
	http.MethodDelete, http.MethodPatch, http.MethodOptions,
}

// Invalidator drops cached directory entries after a write goes through the proxy.
type Invalidator interface {
	Invalidate(ctx context.Context, resource string, id string) error
}

// ProxyHandler forwards /api/proxy/* to the backend API.
type ProxyHandler struct {
	baseURL     string
	client      *http.Client
	invalidator Invalidator
}

func NewProxyHandler(baseURL string, timeout time.Duration, invalidator Invalidator) *ProxyHandler {
	return &ProxyHandler{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: timeout},
		invalidator: invalidator,
	}
}

func (h *ProxyHandler) RegisterRoutes(router *gin.RouterGroup) {
	for _, method := range proxyMethods {
		router.Handle(method, "/api/proxy/*path", h.Forward)
	}
}

// Forward relays the request to the backend
// @Summary      Backend proxy
// @Description  Forwards the request with its query string and Authorization header. Transport failures return {success:false, message, error:"Proxy error"}.
// @Tags         proxy
// @Accept       json
// @Produce      json
// @Param        path  path      string  true  "Backend path"
// @Success      200   {object}  object
// @Success      204
// @Failure      500   {object}  response.ProxyFailure
// @Router       /api/proxy/{path} [get]
// @Router       /api/proxy/{path} [post]
// @Router       /api/proxy/{path} [put]
// @Router       /api/proxy/{path} [delete]
// @Router       /api/proxy/{path} [patch]
func (h *ProxyHandler) Forward(c *gin.Context) {
	setCORS(c)

	path := strings.TrimPrefix(c.Param("path"), "/")
	target := h.baseURL + "/" + path
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	var body io.Reader
	if c.Request.Body != nil && c.Request.Method != http.MethodGet {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ProxyError(err.Error()))
			return
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ProxyError(err.Error()))
		return
	}
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("proxy: %s %s: %v", c.Request.Method, path, err)
		c.JSON(http.StatusInternalServerError, response.ProxyError(err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		h.invalidate(c.Request.Context(), c.Request.Method, path)
	}

	if resp.StatusCode == http.StatusNoContent {
		c.Status(http.StatusNoContent)
		return
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("proxy: read %s %s: %v", c.Request.Method, path, err)
		c.JSON(http.StatusInternalServerError, response.ProxyError(err.Error()))
		return
	}

	// JSON is relayed as-is, anything else is wrapped as {"message": text}.
	if len(bytes.TrimSpace(payload)) == 0 {
		c.Data(resp.StatusCode, "application/json; charset=utf-8", []byte("null"))
		return
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") || json.Valid(payload) {
		c.Data(resp.StatusCode, "application/json; charset=utf-8", payload)
		return
	}
	c.JSON(resp.StatusCode, gin.H{"message": string(payload)})
}

// invalidate drops directory cache entries after a successful write to a
// directory resource.
func (h *ProxyHandler) invalidate(ctx context.Context, method, path string) {
	if h.invalidator == nil || method == http.MethodGet || method == http.MethodOptions {
		return
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	resource, id := segments[0], ""
	if len(segments) > 1 {
		id = segments[1]
	}
	if err := h.invalidator.Invalidate(ctx, resource, id); err != nil {
		log.Printf("proxy: invalidate %s/%s: %v", resource, id, err)
	}
}

func setCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", strings.Join(proxyMethods, ", "))
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
