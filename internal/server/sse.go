package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const sseKeepaliveInterval = 25 * time.Second

// handleEvents streams the session's lifecycle events over SSE until the
// client disconnects. Each frame carries the topic as the event name and
// the event payload as JSON. A subscriber that cannot keep up loses
// events rather than stalling the pipeline.
func (s *Server) handleEvents(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	ch, cancel := s.deps.Broker.Subscribe(strconv.FormatUint(uint64(id), 10), 32)
	defer cancel()
	sseSubscribers.Inc()
	defer sseSubscribers.Dec()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	fmt.Fprint(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case env, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(env.Event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", env.Topic, payload)
			c.Writer.Flush()
		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
