package development

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/api/middleware"
	"github.com/GriffinCanCode/tactility/internal/domain/app"
	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/shared/bundle"
)

type handlers struct {
	deps   Deps
	logger *logging.Logger
}

// StartRequest is the body of POST /apps/:id/start
type StartRequest struct {
	Params map[string]string `json:"params"`
}

func (h *handlers) health(c *gin.Context) {
	current := ""
	if ctx, ok := h.deps.Loader.Stack().Current(); ok {
		current = ctx.Manifest().ID
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"devices":     h.deps.Devices.Len(),
		"services":    len(h.deps.Services.List()),
		"stack_depth": h.deps.Loader.Stack().Depth(),
		"current_app": current,
	})
}

func (h *handlers) listDevices(c *gin.Context) {
	devices := h.deps.Devices.All()
	if kind := c.Query("type"); kind != "" {
		t, ok := device.ParseType(kind)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown device type"})
			return
		}
		devices = h.deps.Devices.FindAll(t)
	}

	out := make([]device.Info, 0, len(devices))
	for _, d := range devices {
		out = append(out, device.Describe(d))
	}
	c.JSON(http.StatusOK, gin.H{"devices": out})
}

func (h *handlers) listServices(c *gin.Context) {
	running := h.deps.Services.List()
	out := make([]service.Info, 0, len(running))
	for _, inst := range running {
		out = append(out, inst.Describe())
	}
	c.JSON(http.StatusOK, gin.H{
		"running":    out,
		"registered": h.deps.Services.Manifests(),
	})
}

func (h *handlers) listApps(c *gin.Context) {
	manifests := h.deps.Apps.ListVisible()
	if c.Query("all") == "true" {
		manifests = h.deps.Apps.List()
	}

	out := make([]app.ManifestInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, m.Describe())
	}
	c.JSON(http.StatusOK, gin.H{"apps": out})
}

func (h *handlers) appStack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stack": h.deps.Loader.Stack().Snapshot()})
}

func (h *handlers) startApp(c *gin.Context) {
	appID := c.Param("id")
	if _, ok := h.deps.Apps.Find(appID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "app not found"})
		return
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	launchID, ok := h.deps.Loader.Start(appID, bundle.FromStrings(req.Params))
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "loader busy"})
		return
	}

	h.logger.Info("app start requested",
		zap.String("id", appID),
		zap.Uint32("launch_id", uint32(launchID)),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
	c.JSON(http.StatusAccepted, gin.H{"launch_id": launchID})
}

// stopApp stops the foreground app. The root app stays: only shutdown
// empties the stack.
func (h *handlers) stopApp(c *gin.Context) {
	switch h.deps.Loader.Stack().Depth() {
	case 0:
		c.JSON(http.StatusConflict, gin.H{"error": "no app running"})
		return
	case 1:
		c.JSON(http.StatusConflict, gin.H{"error": "can't stop root app"})
		return
	}
	if !h.deps.Loader.Stop() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "loader busy"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
}
