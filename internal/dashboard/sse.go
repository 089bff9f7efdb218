package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/rank"
	"github.com/zulandar/launchpad/internal/store"
)

// maxEventBatch caps how many new tasks one poll reports.
const maxEventBatch = 50

// handleEvents streams newly created task candidates as server-sent events.
// ?since= (RFC 3339) replays tasks created after that instant.
func (s *Server) handleEvents(c *gin.Context) {
	since := time.Now()
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, apperr.New(apperr.InvalidInput, "since must be an RFC 3339 timestamp, got %q", raw))
			return
		}
		since = t
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", gin.H{"since": since.Format(time.RFC3339)})
	c.Writer.Flush()

	cursor := store.TaskCursor{CreatedAt: since}
	ctx := c.Request.Context()
	ticker := time.NewTicker(s.pollInterval)
	heartbeat := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", gin.H{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			tasks, err := s.st.Tasks.CreatedAfter(ctx, cursor, maxEventBatch)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.Warn().Err(err).Msg("dashboard: poll new tasks")
				continue
			}
			if len(tasks) == 0 {
				continue
			}
			cursor = cursor.After(tasks[len(tasks)-1])
			for _, sc := range rank.Score(tasks) {
				writeSSE(c.Writer, "task", sc)
			}
			c.Writer.Flush()
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
