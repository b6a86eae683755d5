package bridge

import (
	"github.com/charmbracelet/log"
)

// LogHost is a [Host] that writes every call to a logger. It is the
// fallback when no host is connected.
type LogHost struct {
	logger *log.Logger
}

// NewLogHost returns a host logging to logger, or log.Default() when nil.
func NewLogHost(logger *log.Logger) *LogHost {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHost{logger: logger.WithPrefix("host")}
}

func (h *LogHost) DebugLog(msg string)      { h.logger.Debug(msg) }
func (h *LogHost) NodeSelected(id string)   { h.logger.Info("node selected", "id", id) }
func (h *LogHost) NodeUnselected(id string) { h.logger.Info("node unselected", "id", id) }
func (h *LogHost) SelectionCleared()        { h.logger.Info("selection cleared") }
func (h *LogHost) ZoomChanged(scale float64) {
	h.logger.Debug("zoom changed", "scale", scale)
}
func (h *LogHost) StabilizationProgress(percent int) {
	h.logger.Debug("stabilization progress", "percent", percent)
}
func (h *LogHost) StabilizationComplete()      { h.logger.Info("stabilization complete") }
func (h *LogHost) ColorFlowStarted(id string)  { h.logger.Debug("color flow started", "id", id) }
func (h *LogHost) ColorFlowComplete(id string) { h.logger.Debug("color flow complete", "id", id) }
func (h *LogHost) HandleError(msg string)      { h.logger.Error(msg) }

func (h *LogHost) NodeHovered(id string) {
	if id == "" {
		h.logger.Debug("hover cleared")
		return
	}
	h.logger.Debug("node hovered", "id", id)
}

func (h *LogHost) String() string { return "log" }

var (
	_ Host = (*LogHost)(nil)
	_ Host = (*Encoder)(nil)
	_ Host = (*Recorder)(nil)
)
