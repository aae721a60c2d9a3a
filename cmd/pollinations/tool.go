package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/tools"
)

func newRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(tools.NewPollinationsTool(cli.node, cli.cfg))
	return r
}

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Agent tool definitions and calls",
}

var toolSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tool definitions in OpenAI function format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(newRegistry().GetDefinitions())
	},
}

var toolRunCmd = &cobra.Command{
	Use:     "run <name> <json-arguments>",
	Short:   "Call a tool the way an agent would",
	Example: `  pollinations tool run pollinations '{"operation":"generateImage","prompt":"a red fox"}'`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var toolArgs map[string]interface{}
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid tool arguments: %w", err)
		}
		out, err := newRegistry().Execute(cmd.Context(), args[0], toolArgs)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	toolCmd.AddCommand(toolSchemaCmd, toolRunCmd)
}
