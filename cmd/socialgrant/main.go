// Command socialgrant sirve el grant OAuth "social" y expone utilidades de operación.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgrant/internal/config"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		configPath: envOr("CONFIG_PATH", "config.yaml"),
		envFile:    ".env",
	}

	root := &cobra.Command{
		Use:           "socialgrant",
		Short:         "Servidor del grant OAuth social (google, facebook, linkedin)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; las variables ya exportadas tienen prioridad.
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("load %s: %w", opts.envFile, err)
				}
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "Archivo de configuración YAML (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile, "Archivo .env a cargar (vacío = ninguno)")

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
		newConfigCmd(opts),
		newSecretCmd(),
	)
	return root
}

// loadConfig carga la config e inicializa el logger global.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     version,
	})
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
