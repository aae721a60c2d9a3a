package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/catalog"
)

// modelLists maps the command argument to a load method name.
var modelLists = map[string]string{
	"image":     "getImageModels",
	"reference": "getImageModelsWithReferenceSupport",
	"text":      "getTextModels",
	"tts":       "getAudioTTSModels",
	"music":     "getAudioMusicModels",
	"voices":    "getTTSVoices",
	"chat":      "getChatModels",
}

func modelListNames() []string {
	names := make([]string, 0, len(modelLists))
	for name := range modelLists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var modelsCmd = &cobra.Command{
	Use:       "models <list>",
	Short:     "List selectable models or voices",
	Long:      "List the options of one dropdown: " + strings.Join(modelListNames(), ", ") + ".\nA static list is shown when the API cannot be reached.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: modelListNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		load := catalog.LoadMethods(cli.resolver)[modelLists[args[0]]]
		options := load(cmd.Context())

		w := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
		fmt.Fprintf(w, "  VALUE\tNAME\t\n")
		for _, o := range options {
			fmt.Fprintf(w, "  %s\t%s\t\n", o.Value, o.Name)
		}
		return w.Flush()
	},
}
