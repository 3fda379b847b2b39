package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgrant/internal/app"
	"github.com/dropDatabas3/socialgrant/internal/social"
	"github.com/dropDatabas3/socialgrant/internal/util"
)

// validateResult es la salida de `socialgrant validate`.
type validateResult struct {
	Outcome  string            `json:"outcome"`
	Token    string            `json:"token,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Subject  string            `json:"subject,omitempty"`
	Error    string            `json:"error,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		providerType string
		token        string
		timeout      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida un token contra los providers configurados (sin emitir access token)",
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

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res := runValidate(ctx, social.NewDispatcher(core.Validators), map[string]string{
				social.ParamType:  providerType,
				social.ParamToken: token,
			})
			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if res.Outcome != social.OutcomeAuthenticated {
				return fmt.Errorf("validation %s", res.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&providerType, "type", "", "Tipo de provider (google|facebook|linkedin)")
	cmd.Flags().StringVar(&token, "token", "", "Token del provider (id_token, access token o authorization code)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout total")
	return cmd
}

func runValidate(ctx context.Context, auth social.Authenticator, params map[string]string) validateResult {
	req, err := social.ExtractGrant(params)
	if err == nil {
		var p *social.Principal
		p, err = auth.Authenticate(ctx, req.ProviderType, req.Token)
		if err == nil {
			return validateResult{
				Outcome:  social.OutcomeAuthenticated,
				Token:    util.MaskToken(params[social.ParamToken]),
				Provider: p.Provider(),
				Subject:  p.SubjectID(),
			}
		}
	}

	res := validateResult{
		Outcome: social.Outcome(nil, err),
		Token:   util.MaskToken(params[social.ParamToken]),
		Error:   err.Error(),
		Kind:    string(social.KindOf(err)),
	}
	// Los details útiles suelen estar en la causa (el rechazo del provider).
	for e := err; e != nil; {
		if se, ok := e.(*social.Error); ok && len(se.Details) > 0 {
			res.Details = se.Details
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return res
}
