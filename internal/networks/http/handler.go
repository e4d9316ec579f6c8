package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/export"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/service"
)

// maxUploadBytes caps multipart uploads. Coordinate-format matrix files for
// networks this engine can handle stay far below this.
const maxUploadBytes = 32 << 20

type Handler struct {
	svc *service.Service
}

// Register attaches network routes to the given router group.
func Register(rg *gin.RouterGroup, svc *service.Service) {
	h := &Handler{svc: svc}

	rg.POST("", h.upload)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
	rg.GET("/:id/overview", h.overview)
	rg.GET("/:id/dot", h.dot)
}

// upload takes a multipart MatrixMarket file. The name defaults to the
// file's base name, directedness defaults to undirected.
func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "file exceeds upload limit"})
		return
	}

	directed, err := strconv.ParseBool(c.DefaultPostForm("directed", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "directed must be true or false"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		base := filepath.Base(file.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cannot read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cannot read upload"})
		return
	}

	res, err := h.svc.Ingest(c.Request.Context(), name, directed, data)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNetworkExists):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
		return
	case badUpload(err):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"ok": true, "network": res.Network, "report": res.Report, "duplicate": res.Duplicate})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "networks": items})
}

func (h *Handler) get(c *gin.Context) {
	n, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNetworkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "network not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "network": n})
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNetworkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "network not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNetworkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "network not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "overview": ov})
}

// dot renders the stored graph as Graphviz source.
func (h *Handler) dot(c *gin.Context) {
	g, n, err := h.svc.Graph(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNetworkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "network not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	out := export.ToDOT(g, export.DOTOptions{Title: n.Name})
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(out))
}

// badUpload reports whether the error came from the uploaded file rather
// than from storage.
func badUpload(err error) bool {
	return errors.Is(err, domain.ErrEmptyUpload) ||
		errors.Is(err, mtx.ErrBadHeader) ||
		errors.Is(err, mtx.ErrUnsupported) ||
		errors.Is(err, mtx.ErrNotSquare) ||
		errors.Is(err, mtx.ErrBadEntry)
}
