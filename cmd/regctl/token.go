package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"coffeereg/pkg/platform/middleware/admin"
	"coffeereg/pkg/secrets"
)

type tokenOutput struct {
	Token string            `json:"token"`
	Hash  string            `json:"hash"`
	Usage map[string]string `json:"usage"`
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token and its bcrypt hash",
		Long: `Print a new operator token together with the bcrypt hash the server
expects in ADMIN_TOKEN_HASH. Pass --token to hash an existing value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				var err error
				if token, err = secrets.Generate(); err != nil {
					return err
				}
			}
			hash, err := secrets.Hash(token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tokenOutput{
				Token: token,
				Hash:  hash,
				Usage: map[string]string{
					"env":    "ADMIN_TOKEN_HASH=" + hash,
					"header": admin.TokenHeader + ": " + token,
				},
			})
		},
	}
	cmd.Flags().String("token", "", "Hash this token instead of generating one")
	return cmd
}
