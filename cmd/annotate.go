package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/internal/app"
)

var annotateExample string

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate [flags] <annotations.yaml>",
	Short: "Classify pulses from an annotation file",
	Long: `Replay the marker placements of up to eight pulse tabs into the auto-ID
panel and classify each tab.

An annotation file lists, per tab, the call type, the harmonic and the
frequency (kHz) and time (s) of each marker. Tabs with missing required
markers or active warnings report why they were not classified.

Examples:
  # Write an example annotation file
  batscope annotate --example pulses.yaml

  # Classify the annotated pulses
  batscope annotate pulses.yaml -o yaml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if annotateExample != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVar(&annotateExample, "example", "",
		"write an example annotation file to this path and exit")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if annotateExample != "" {
		if err := app.GenerateExampleAnnotation(annotateExample); err != nil {
			return err
		}
		printSuccess("Example annotation written to %s", annotateExample)
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	doc, err := app.LoadAnnotationFile(args[0])
	if err != nil {
		return err
	}

	reports, err := a.Annotate(doc)
	if err != nil {
		return err
	}

	if !humanOutput(a) {
		return emit(a, reports)
	}

	printHeader("Pulse Annotation", args[0])
	for _, r := range reports {
		printSectionHeader(fmt.Sprintf("Tab %d: %s (harmonic %d)", r.Tab, r.CallType, r.Harmonic))
		for _, m := range r.Markers {
			printKeyValue(m.Title, fmt.Sprintf("%.4f s", m.Time))
		}
		if r.Bandwidth != nil {
			printKeyValue("Bandwidth", fmt.Sprintf("%.1f kHz", *r.Bandwidth))
		}
		if r.Duration != nil {
			printKeyValue("Duration", fmt.Sprintf("%.2f ms", *r.Duration))
		}
		for _, w := range r.Warnings {
			printWarning("%s", w)
		}
		if len(r.Missing) > 0 {
			printError("Missing: %s", strings.Join(r.Missing, ", "))
		}
		for _, e := range r.Errors {
			printError("%s", e)
		}
		if r.Result != "" {
			printSuccess("%s", r.Result)
		}
		fmt.Println()
	}
	return nil
}
