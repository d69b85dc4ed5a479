package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
)

// StatusRequest changes the kiosk status.
// swagger:model StatusRequest
type StatusRequest struct {
	Status string `json:"status" example:"maintenance"`
}

func routes(r *gin.Engine, pub *kiosk.Publisher, sink audit.Sink, log *zap.Logger, adminKeyHash string) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/status", getStatusHandler(pub))
	r.GET("/overrides", listOverridesHandler(pub))

	admin := r.Group("/", httpx.AdminAuth(adminKeyHash))
	admin.PUT("/status", setStatusHandler(pub, sink, log))
	admin.PUT("/overrides/:product_id", setOverrideHandler(pub, sink, log))
	admin.DELETE("/overrides/:product_id", deleteOverrideHandler(pub, sink, log))
}

func getStatusHandler(pub *kiosk.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": pub.Status()})
	}
}

func setStatusHandler(pub *kiosk.Publisher, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		st, ok := kiosk.ParseStatus(req.Status)
		if !ok {
			httpx.Abort(c, httpx.Invalid("status must be open, closed or maintenance"))
			return
		}
		prev := pub.Status()
		pub.SetStatus(st)
		if prev != st {
			log.Info("kiosk status changed", zap.String("from", string(prev)), zap.String("to", string(st)))
			audit.Record(c.Request.Context(), sink, log, audit.NewEvent(audit.KioskStatusChanged, "kiosk", httpx.Actor(c),
				map[string]any{"from": prev, "to": st}))
		}
		c.JSON(http.StatusOK, gin.H{"status": st})
	}
}

func listOverridesHandler(pub *kiosk.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, pub.Overrides())
	}
}

func setOverrideHandler(pub *kiosk.Publisher, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var o kiosk.LiveOverride
		if err := c.ShouldBindJSON(&o); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		if o == (kiosk.LiveOverride{}) {
			httpx.Abort(c, httpx.Invalid("override sets no field"))
			return
		}
		id := c.Param("product_id")
		pub.SetOverride(id, o)
		audit.Record(c.Request.Context(), sink, log, audit.NewEvent(audit.OverrideSet, id, httpx.Actor(c),
			map[string]any{"override": o}))
		c.JSON(http.StatusOK, o)
	}
}

func deleteOverrideHandler(pub *kiosk.Publisher, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("product_id")
		if !pub.DeleteOverride(id) {
			httpx.Abort(c, httpx.NotFound("no override for product"))
			return
		}
		audit.Record(c.Request.Context(), sink, log, audit.NewEvent(audit.OverrideDeleted, id, httpx.Actor(c), nil))
		c.Status(http.StatusNoContent)
	}
}
