package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/pkg/audio/wavfile"
)

var metadataAll bool

// MetadataResult is the GUANO summary of one file
type MetadataResult struct {
	File     string           `json:"file" yaml:"file"`
	Found    bool             `json:"guano" yaml:"guano"`
	Metadata wavfile.Metadata `json:"metadata" yaml:"metadata"`
}

// metadataCmd represents the metadata command
var metadataCmd = &cobra.Command{
	Use:   "metadata [flags] <files...>",
	Short: "Show GUANO metadata of WAV recordings",
	Long: `Print the recording date, time and location stored in each file's GUANO
chunk. Use --all to list every GUANO field.

Example:
  batscope metadata --all night1.wav night2.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMetadata,
}

func init() {
	rootCmd.AddCommand(metadataCmd)

	metadataCmd.Flags().BoolVar(&metadataAll, "all", false, "list every GUANO field")
}

func runMetadata(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	results := make([]MetadataResult, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		result := MetadataResult{File: filepath.Base(path)}
		if text, ok := wavfile.ExtractGUANO(data); ok {
			result.Found = true
			result.Metadata = wavfile.ParseGUANO(text)
		}
		if !metadataAll {
			result.Metadata.Fields = nil
		}
		results = append(results, result)
	}

	if !humanOutput(a) {
		return emit(a, results)
	}

	for _, r := range results {
		printSectionHeader(r.File)
		if !r.Found {
			printWarning("No GUANO metadata")
			fmt.Println()
			continue
		}
		printKeyValue("Date", r.Metadata.Date)
		printKeyValue("Time", r.Metadata.Time)
		printKeyValue("Latitude", r.Metadata.Latitude)
		printKeyValue("Longitude", r.Metadata.Longitude)
		if len(r.Metadata.Fields) > 0 {
			keys := make([]string, 0, len(r.Metadata.Fields))
			for k := range r.Metadata.Fields {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			printInfo("GUANO fields:")
			for _, k := range keys {
				printKeyValue(k, r.Metadata.Fields[k])
			}
		}
		fmt.Println()
	}
	return nil
}
