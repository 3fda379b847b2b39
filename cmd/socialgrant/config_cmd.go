package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgrant/internal/app"
	"github.com/dropDatabas3/socialgrant/internal/providers"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Operaciones sobre la configuración",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Carga y valida la configuración; imprime la versión efectiva con secretos enmascarados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			core, err := app.BuildCore(cfg)
			if err != nil {
				return err
			}
			defer core.Cache.Close()

			red := cfg.Redacted()
			out, err := red.YAML()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out)
			fmt.Fprintf(w, "# enabled providers: %v\n", providers.Enabled(core.Validators))
			return nil
		},
	})
	return cmd
}
