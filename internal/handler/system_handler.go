package handler

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/textfmt"
)

const metricsInterval = 5 * time.Second

// SystemHandler streams the service's own health over SSE: live sessions,
// submission queue depth, and the Go runtime. Host-level monitoring
// belongs to the platform, not this handler.
type SystemHandler struct {
	sessions  *service.SessionService
	rdb       *redis.Client
	startedAt time.Time
	log       zerolog.Logger
}

func NewSystemHandler(sessions *service.SessionService, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		sessions:  sessions,
		rdb:       rdb,
		startedAt: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type serviceMetrics struct {
	Timestamp     int64  `json:"timestamp"`
	Uptime        string `json:"uptime"`
	LiveSessions  int    `json:"live_sessions"`
	QueuedBatches int64  `json:"queued_batches"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	RSSBytes   uint64 `json:"rss_bytes"`
	GoVersion  string `json:"go_version"`
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Metrics stream connected")
	defer h.log.Info().Msg("Metrics stream disconnected")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		c.SSEvent("metrics", h.collect(c))
		c.Writer.Flush()

		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *SystemHandler) collect(c *gin.Context) serviceMetrics {
	m := serviceMetrics{
		Timestamp:    time.Now().Unix(),
		Uptime:       textfmt.FormatDuration(int(time.Since(h.startedAt).Seconds())),
		LiveSessions: h.sessions.Count(),
		GoVersion:    runtime.Version(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.HeapSys
	m.NumGC = ms.NumGC
	m.RSSBytes = selfRSS()

	if n, err := h.rdb.LLen(c.Request.Context(), config.WorkerKey.PersistSubmissionsQueue).Result(); err == nil {
		m.QueuedBatches = n
	}

	return m
}

// selfRSS reads this process's resident set from /proc/self/status.
// Zero when the line is missing (non-Linux dev hosts).
func selfRSS() uint64 {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		after, found := strings.CutPrefix(sc.Text(), "VmRSS:")
		if !found {
			continue
		}
		fields := strings.Fields(after)
		if len(fields) == 0 {
			return 0
		}
		kb, _ := strconv.ParseUint(fields[0], 10, 64)
		return kb * 1024
	}
	return 0
}
