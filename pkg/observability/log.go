package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// [PipelineHooks], [CacheHooks] and [HTTPHooks].
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to l, or to the default logger if l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l.WithPrefix("hooks")}
}

// Register installs h for all event categories.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnTemplateLoad(_ context.Context, id string, version int, defaultUsed bool, d time.Duration) {
	h.Logger.Debug("template loaded", "template", id, "version", version, "default", defaultUsed, "elapsed", d)
}

func (h *LogHooks) OnSceneComplete(_ context.Context, id string, nodes, warnings int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("scene failed", "template", id, "elapsed", d, "err", err)
		return
	}
	h.Logger.Debug("scene ready", "template", id, "nodes", nodes, "warnings", warnings, "elapsed", d)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("encode failed", "formats", formats, "elapsed", d, "err", err)
		return
	}
	h.Logger.Debug("encoded", "formats", formats, "elapsed", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("served", "method", method, "route", route, "status", status, "elapsed", d)
}
