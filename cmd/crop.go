package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/pkg/audio/wavfile"
)

var (
	cropStart float64
	cropEnd   float64
)

// CropResult describes a written crop
type CropResult struct {
	Input   string  `json:"input" yaml:"input"`
	Output  string  `json:"output" yaml:"output"`
	Start   float64 `json:"start_s" yaml:"start_s"`
	End     float64 `json:"end_s" yaml:"end_s"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
	Bytes   int     `json:"bytes" yaml:"bytes"`
}

// cropCmd represents the crop command
var cropCmd = &cobra.Command{
	Use:   "crop [flags] <in.wav> <out.wav>",
	Short: "Cut a time range out of a WAV recording",
	Long: `Write the samples between --start and --end seconds to a new WAV file.
Chunks before the audio data are kept; chunks after it are dropped.

Example:
  batscope crop --start 1.2 --end 1.8 night1.wav pulse.wav`,
	Args: cobra.ExactArgs(2),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().Float64Var(&cropStart, "start", 0, "start time in seconds")
	cropCmd.Flags().Float64Var(&cropEnd, "end", 0, "end time in seconds (default is the end of the file)")
}

func runCrop(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	a, err := newApp()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	end := cropEnd
	if !cmd.Flags().Changed("end") {
		info, size, err := wavfile.ReadFormat(data)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", in, err)
		}
		if info.SampleRate <= 0 || info.BlockAlign() <= 0 {
			return fmt.Errorf("unsupported fmt chunk in %s", in)
		}
		// one second past the data; Crop clamps to the data chunk
		end = float64(size)/float64(info.BlockAlign()*info.SampleRate) + 1
	}

	cropped, err := wavfile.Crop(data, cropStart, end)
	if err != nil {
		return fmt.Errorf("failed to crop %s: %w", in, err)
	}
	if err := os.WriteFile(out, cropped, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	rec, err := wavfile.DecodeBytes(cropped)
	if err != nil {
		return fmt.Errorf("failed to decode crop: %w", err)
	}
	result := CropResult{
		Input:   in,
		Output:  out,
		Start:   cropStart,
		End:     cropStart + rec.Seconds(),
		Seconds: rec.Seconds(),
		Bytes:   len(cropped),
	}

	if !humanOutput(a) {
		return emit(a, result)
	}
	printSuccess("%s [%.3f s, %.3f s) -> %s (%d bytes)", in, result.Start, result.End, out, result.Bytes)
	return nil
}
