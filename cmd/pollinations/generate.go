package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/node"
	"github.com/new-xmon-df/pollinations-go/pkg/utils"
)

// genFlags are the flags of the generation commands. Each command gets its
// own copy.
type genFlags struct {
	model          string
	minimumBalance float64
	width          int
	height         int
	seed           int64
	nologo         bool
	enhance        bool
	safe           bool
	reference      string
	system         string
	temperature    float64
	jsonMode       bool
	voice          string
	format         string
	duration       int
	instrumental   bool
}

var (
	imageCmd     = newGenerateCmd(node.OpGenerateImage, "image [prompt...]", "Generate an image from a text prompt", imageFlags)
	referenceCmd = newGenerateCmd(node.OpGenerateImageWithReference, "reference [prompt...]", "Generate an image using a reference image", referenceFlags)
	textCmd      = newGenerateCmd(node.OpGenerateText, "text [prompt...]", "Generate text from a prompt", textFlags)
	speechCmd    = newGenerateCmd(node.OpGenerateSpeech, "speech [text...]", "Convert text to speech", speechFlags)
	musicCmd     = newGenerateCmd(node.OpGenerateMusic, "music [prompt...]", "Generate music from a text prompt", musicFlags)
)

func imageFlags(cmd *cobra.Command, f *genFlags) {
	cmd.Flags().IntVar(&f.width, "width", 0, "image width in pixels (default 1024)")
	cmd.Flags().IntVar(&f.height, "height", 0, "image height in pixels (default 1024)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for reproducible generation, 0 for random")
	cmd.Flags().BoolVar(&f.nologo, "nologo", false, "remove the Pollinations watermark")
	cmd.Flags().BoolVar(&f.enhance, "enhance", false, "enhance the prompt")
	cmd.Flags().BoolVar(&f.safe, "safe", false, "enable the content safety filter")
}

func referenceFlags(cmd *cobra.Command, f *genFlags) {
	imageFlags(cmd, f)
	cmd.Flags().StringVarP(&f.reference, "image", "i", "", "reference image URL (http or https)")
	_ = cmd.MarkFlagRequired("image")
}

func textFlags(cmd *cobra.Command, f *genFlags) {
	cmd.Flags().StringVarP(&f.system, "system", "s", "", "system prompt")
	cmd.Flags().Float64VarP(&f.temperature, "temperature", "t", 0.7, "sampling temperature, 0 to 2")
	cmd.Flags().BoolVar(&f.jsonMode, "json-mode", false, "ask for a JSON response")
	cmd.Flags().Int64Var(&f.seed, "seed", -1, "seed for reproducible generation, -1 for random")
}

func speechFlags(cmd *cobra.Command, f *genFlags) {
	cmd.Flags().StringVar(&f.voice, "voice", "", "voice (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "mp3", "response format: mp3, opus, aac, flac, wav or pcm")
}

func musicFlags(cmd *cobra.Command, f *genFlags) {
	cmd.Flags().IntVar(&f.duration, "duration", 30, "duration in seconds")
	cmd.Flags().BoolVar(&f.instrumental, "instrumental", false, "instrumental only, no vocals")
}

func newGenerateCmd(op node.Operation, use, short string, setup func(*cobra.Command, *genFlags)) *cobra.Command {
	f := &genFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := f.request(cmd, op, strings.Join(args, " "))
			items, err := cli.node.Execute(cmd.Context(), op, []node.Request{req})
			if err != nil {
				return err
			}
			return printItems(items)
		},
	}
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model ID (default from config)")
	cmd.Flags().Float64Var(&f.minimumBalance, "minimum-balance", 0, "fail unless the account holds at least this many pollens")
	setup(cmd, f)
	return cmd
}

// request builds the node request. Flags left unset keep the node defaults.
func (f *genFlags) request(cmd *cobra.Command, op node.Operation, prompt string) node.Request {
	changed := cmd.Flags().Changed
	req := node.Request{
		Prompt:         prompt,
		Model:          f.model,
		ReferenceImage: f.reference,
		Options: node.Options{
			Width:          f.width,
			Height:         f.height,
			NoLogo:         f.nologo,
			Enhance:        f.enhance,
			Safe:           f.safe,
			SystemPrompt:   f.system,
			JSONMode:       f.jsonMode,
			Voice:          f.voice,
			ResponseFormat: f.format,
			Duration:       f.duration,
			Instrumental:   f.instrumental,
			MinimumBalance: f.minimumBalance,
		},
	}
	if req.Model == "" {
		req.Model = cli.cfg.Defaults.ModelFor(string(op))
	}
	if op == node.OpGenerateSpeech && req.Options.Voice == "" {
		req.Options.Voice = cli.cfg.Defaults.Voice
	}
	if !changed("minimum-balance") {
		req.Options.MinimumBalance = cli.cfg.Defaults.MinimumBalance
	}
	if changed("seed") {
		seed := f.seed
		req.Options.Seed = &seed
	}
	if changed("temperature") {
		t := f.temperature
		req.Options.Temperature = &t
	}
	return req
}

// printItems saves binaries to the output dir and prints either the text
// payload or, with --json, the whole item.
func printItems(items []node.Item) error {
	for _, item := range items {
		out := item.JSON
		if item.Binary != nil {
			path, err := utils.SaveMedia(cli.cfg.OutputDir, item.Binary.FileName, item.Binary.Data)
			if err != nil {
				return err
			}
			out = make(map[string]interface{}, len(item.JSON)+1)
			for k, v := range item.JSON {
				out[k] = v
			}
			out["file"] = path
			if !jsonOutput {
				fmt.Println(path)
				continue
			}
		}

		var v interface{} = out
		if text, ok := out["text"]; ok && !jsonOutput {
			if s, ok := text.(string); ok {
				fmt.Println(s)
				continue
			}
			v = text
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
