package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgrant/internal/security/secretbox"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Cifrado de secretos de configuración (" + secretbox.EnvMasterKey + ")",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keygen",
		Short: "Genera una master key nueva (base64, 32 bytes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), k)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt [value]",
		Short: "Cifra value (o stdin) y lo imprime como enc:<...> para config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := secretbox.FromEnv()
			if err != nil {
				return err
			}
			plain, err := secretInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			sealed, err := box.Seal(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secretbox.Prefix+sealed)
			return nil
		},
	})
	return cmd
}

func secretInput(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(io.LimitReader(in, 64<<10))
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), "\r\n")
	if v == "" {
		return "", errors.New("nothing to encrypt")
	}
	return v, nil
}
