package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/node"
	"github.com/new-xmon-df/pollinations-go/pkg/providers"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the node descriptions as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode([]node.Description{node.Describe(), providers.Describe()})
	},
}
