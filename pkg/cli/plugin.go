package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/app"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/spf13/cobra"

	"github.com/yourusername/graph-generation-service/pkg/api"
	"github.com/yourusername/graph-generation-service/pkg/config"
)

// PluginID is the Grafana app plugin identifier
const PluginID = "graphgen-app"

// pluginInstance serves the API routes as plugin resources
type pluginInstance struct {
	*api.Handler
}

// Dispose is called by the instance manager when settings change
func (p *pluginInstance) Dispose() {
	log.DefaultLogger.Debug("Disposing graph generation plugin instance")
}

func (a *App) newPluginCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "plugin",
		Short:  "Run as a Grafana app plugin backend",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return app.Manage(PluginID, pluginFactory(cfg), app.ManageOpts{})
		},
	}
}

// pluginFactory builds an instance per app settings. Renderer settings in the
// plugin's JSON data override the base configuration.
func pluginFactory(base *config.Config) app.InstanceFactoryFunc {
	return func(ctx context.Context, settings backend.AppInstanceSettings) (instancemgmt.Instance, error) {
		cfg := *base
		if len(settings.JSONData) > 0 {
			var overrides struct {
				Renderer *struct {
					MaxConcurrentRenders int `json:"max_concurrent_renders"`
					TimeoutMS            int `json:"timeout_ms"`
				} `json:"renderer"`
			}
			if err := json.Unmarshal(settings.JSONData, &overrides); err != nil {
				return nil, fmt.Errorf("failed to parse plugin settings: %w", err)
			}
			if r := overrides.Renderer; r != nil {
				if r.MaxConcurrentRenders > 0 {
					cfg.Renderer.MaxConcurrentRenders = r.MaxConcurrentRenders
				}
				if r.TimeoutMS > 0 {
					cfg.Renderer.TimeoutMS = r.TimeoutMS
				}
			}
		}
		return &pluginInstance{Handler: newService(&cfg)}, nil
	}
}

var _ backend.CallResourceHandler = (*pluginInstance)(nil)
