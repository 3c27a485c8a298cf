package http

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// ExportMessages streams the message log as gzip-compressed NDJSON, one
// envelope per line in append order.
func (h *Handlers) ExportMessages(c *gin.Context) {
	snap := h.controller.Snapshot()

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Disposition", `attachment; filename="messages.ndjson.gz"`)
	c.Status(http.StatusOK)

	zw := gzip.NewWriter(c.Writer)
	defer zw.Close()

	for _, env := range snap.Messages {
		line, err := sonic.Marshal(env)
		if err != nil {
			h.logger.Warn("export marshal failed", zap.Error(err))
			continue
		}
		if _, err := zw.Write(append(line, '\n')); err != nil {
			h.logger.Warn("export write failed", zap.Error(err))
			return
		}
	}
}
