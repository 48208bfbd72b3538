package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/service"
	"orderdesk/pkg/response"
)

var errOutsideBase = errors.New("path escapes the image directory")

var podContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// PODImageHandler serves POD images from a directory on local disk.
type PODImageHandler struct {
	baseDir      string
	imagesFolder string
}

func NewPODImageHandler(baseDir, imagesFolder string) *PODImageHandler {
	return &PODImageHandler{baseDir: baseDir, imagesFolder: imagesFolder}
}

func (h *PODImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/pod-image", h.ServeImage)
}

// ServeImage streams a POD image
// @Summary      POD image
// @Description  Serves a POD image stored under the configured base directory. Data URIs and absolute URLs are rejected.
// @Tags         pods
// @Produce      image/png
// @Produce      image/jpeg
// @Param        path  query  string  true  "Image path relative to the base directory"
// @Success      200
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/pod-image [get]
func (h *PODImageHandler) ServeImage(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("path"))
	if raw == "" {
		badRequest(c, "path is required")
		return
	}
	if service.IsDirectImageRef(raw) {
		badRequest(c, "data URIs and URLs must be used directly")
		return
	}

	full, err := h.resolve(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "image not found"))
		return
	}
	data, err := os.ReadFile(full)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "image not found"))
		return
	}

	contentType, ok := podContentTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		contentType = "image/png"
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

// resolve maps a requested path to a file under baseDir. A leading "imagenes"
// segment, in any case, is renamed to the configured images folder.
func (h *PODImageHandler) resolve(raw string) (string, error) {
	base, err := filepath.Abs(h.baseDir)
	if err != nil {
		return "", err
	}

	p := filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/"))
	var full string
	if filepath.IsAbs(p) {
		full = filepath.Clean(p)
	} else {
		segments := strings.Split(filepath.ToSlash(p), "/")
		if len(segments) > 0 && strings.EqualFold(segments[0], "imagenes") && h.imagesFolder != "" {
			segments[0] = h.imagesFolder
		}
		full = filepath.Join(base, filepath.FromSlash(strings.Join(segments, "/")))
	}

	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", errOutsideBase
	}
	return full, nil
}
