package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/render"
)

func (a *App) newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List supported chart types",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := render.NewDispatcher(model.RendererConfig{}, nil, nil)
			for _, t := range d.Types() {
				fmt.Fprintln(a.stdout, t)
			}
			return nil
		},
	}
}
