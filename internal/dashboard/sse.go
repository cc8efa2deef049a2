package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/models"
)

// sessionEvent is the payload of a "session" SSE event.
type sessionEvent struct {
	State   string          `json:"state"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// handleEvents streams the caller's session state: an initial event, then
// one per sign-out, refresh or role change, until the session ends or the
// client disconnects.
func (s *server) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	changes := make(chan sessionEvent, 8)
	sess := auth.NewSession(auth.NewTokenProvider(s.auth, c.GetString(tokenKey)), s.sessionTimeout, s.log)
	sess.OnChange(func(st auth.State, p *models.Profile) {
		select {
		case changes <- sessionEvent{State: st.String(), Profile: p}:
		default:
		}
	})
	if err := sess.Start(ctx); err != nil {
		s.fail(c, err)
		return
	}
	defer sess.Close()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case ev := <-changes:
			writeSSE(c.Writer, "session", ev)
			c.Writer.Flush()
			if ev.State == auth.StateUnauthenticated.String() {
				return
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
