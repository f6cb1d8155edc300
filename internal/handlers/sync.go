package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) RunSync(c *gin.Context) {
	summary, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             summary.Failures == 0,
		"sessionsSynced": summary.SessionsSynced,
		"assetsSynced":   summary.AssetsSynced,
		"finalsSynced":   summary.FinalsSynced,
		"failures":       summary.Failures,
	})
}
