package lsp

import (
	"encoding/json"

	"phpmdls/internal/phpmd"
	"phpmdls/internal/trace"
)

// resolveConfig layers the project file and the client's
// initializationOptions over the base configuration.
func (s *Server) resolveConfig(root string, options json.RawMessage) phpmd.Config {
	cfg := s.baseConfig
	if root != "" {
		overrides, path, err := s.projectConfig(root)
		if err != nil {
			s.logf("ignoring project config: %v", err)
			trace.Error(s.tracer, trace.ScopeServer, "project-config", err)
		} else {
			if path != "" {
				trace.Point(s.tracer, trace.ScopeServer, "project-config", path)
			}
			cfg = cfg.Apply(overrides)
		}
	}
	if overrides, ok := parseSettings(options); ok {
		cfg = cfg.Apply(overrides)
	}
	return cfg
}

func parseSettings(raw json.RawMessage) (phpmd.Overrides, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return phpmd.Overrides{}, false
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return phpmd.Overrides{}, false
	}
	return phpmd.Overrides{
		Enabled:        settings.PHPMD.Enabled,
		ExecutablePath: settings.PHPMD.Validate.ExecutablePath,
		Rulesets:       settings.PHPMD.Validate.Rulesets,
	}, true
}

// handleDidChangeConfiguration acknowledges the notification. Settings
// are read once at initialize and changes take effect after a restart.
func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if _, ok := parseSettings(params.Settings); ok {
		trace.Point(s.tracer, trace.ScopeServer, "didChangeConfiguration", "ignored until restart")
	}
	return nil
}
