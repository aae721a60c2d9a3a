package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the API key credential",
}

var credentialTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the API key against the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cred := credentials.FromConfig(cli.cfg)
		if err := cred.Test(cmd.Context(), cli.client.HTTPClient, cli.cfg.API.Base); err != nil {
			return err
		}
		fmt.Println("Credential OK")
		return nil
	},
}

func init() {
	credentialCmd.AddCommand(credentialTestCmd)
}
