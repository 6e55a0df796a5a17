package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/nomis52/activitytodo/config"
)

// ConfigHandler serves the running configuration as YAML. Redis and Postgres
// credentials are masked. The optional ?section= query narrows the output to
// one top-level block, e.g. ?section=storage.
type ConfigHandler struct {
	logger   *slog.Logger
	provider ConfigProvider
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(logger *slog.Logger, provider ConfigProvider) *ConfigHandler {
	return &ConfigHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	redacted := h.provider.Config().Redacted()

	var out any = redacted
	if name := r.URL.Query().Get("section"); name != "" {
		section, ok := configSection(redacted, name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown config section %q", name)
			return
		}
		out = section
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode config", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encode config")
		return
	}
	enc.Close()

	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func configSection(cfg *config.Config, name string) (any, bool) {
	switch name {
	case "listener":
		return cfg.Listener, true
	case "storage":
		return cfg.Storage, true
	case "snapshot":
		return cfg.Snapshot, true
	case "logging":
		return cfg.Logging, true
	case "monitoring":
		return cfg.Monitoring, true
	default:
		return nil, false
	}
}
