package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	OK               bool   `json:"ok"`
	Service          string `json:"service"`
	UptimeSeconds    int    `json:"uptimeSeconds"`
	WatchedDirectory string `json:"watchedDirectory"`
	PendingSyncCount int    `json:"pendingSyncCount"`
	Timestamp        string `json:"timestamp"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx := c.Request.Context()

	pending := 0
	for _, count := range []func() (int, error){
		func() (int, error) { return h.sessions.CountPending(ctx) },
		func() (int, error) { return h.assets.CountPending(ctx) },
		func() (int, error) { return h.projects.CountPending(ctx) },
	} {
		n, err := count()
		if err != nil {
			h.log.Error().Err(err).Msg("pending sync count failed")
			continue
		}
		pending += n
	}

	c.JSON(http.StatusOK, healthResponse{
		OK:               true,
		Service:          "local-agent",
		UptimeSeconds:    int(time.Since(h.startedAt).Seconds()),
		WatchedDirectory: h.cfg.Paths.Watched,
		PendingSyncCount: pending,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}
