package cmd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/internal/autoid"
	"github.com/hkbatradar/Spectrogram/internal/species"
)

var (
	classifyCallType string
	classifyHarmonic int
)

// ClassifyResult is the outcome of one classify run
type ClassifyResult struct {
	CallType string             `json:"call_type" yaml:"call_type"`
	Harmonic int                `json:"harmonic" yaml:"harmonic"`
	Values   map[string]float64 `json:"values" yaml:"values"`
	Matches  []string           `json:"matches" yaml:"matches"`
	Result   string             `json:"result" yaml:"result"`
}

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify [flags]",
	Short: "Classify a pulse from measured parameters",
	Long: `Match one set of call measurements against the species rule table.

Frequencies are in kHz and durations in ms. Parameters that are not given
are treated as unmeasured.

Examples:
  # Pipistrellus abramus QCF pulse
  batscope classify --call-type QCF --highest-freq 47 --lowest-freq 45

  # FM-QCF-FM pulse against a custom rule table
  batscope classify --call-type FM-QCF-FM --rules my-rules.yaml \
    --highest-freq 90 --knee-freq 55 --heel-freq 52 --lowest-freq 40`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyCallType, "call-type", "",
		"call type (CF-FM, FM-CF-FM, FM, FM-QCF, FM-QCF-FM, QCF)")
	classifyCmd.Flags().IntVar(&classifyHarmonic, "harmonic", 0,
		fmt.Sprintf("harmonic 0..%d", autoid.MaxHarmonic))
	classifyCmd.Flags().String("rules", "",
		"species rule table YAML (default is the embedded table)")
	for _, f := range species.Fields {
		classifyCmd.Flags().Float64(fieldFlag(f), 0, fmt.Sprintf("measured %s", f))
	}
	classifyCmd.MarkFlagRequired("call-type")
}

// fieldFlag converts a field name such as kneeLowTime to knee-low-time
func fieldFlag(f species.Field) string {
	var b strings.Builder
	for i, r := range string(f) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runClassify(cmd *cobra.Command, args []string) error {
	ct, err := autoid.ParseCallType(classifyCallType)
	if err != nil {
		return err
	}
	if classifyHarmonic < 0 || classifyHarmonic > autoid.MaxHarmonic {
		return fmt.Errorf("harmonic must be between 0 and %d", autoid.MaxHarmonic)
	}

	overrideConfig(cmd, "rules", "classifier.rules_file")
	a, err := newApp()
	if err != nil {
		return err
	}

	obs := species.NewObservation(ct.String(), classifyHarmonic)
	values := make(map[string]float64)
	for _, f := range species.Fields {
		name := fieldFlag(f)
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(name)
		if err != nil {
			return err
		}
		obs = obs.Set(f, v)
		values[string(f)] = v
	}

	result := ClassifyResult{
		CallType: obs.CallType,
		Harmonic: obs.Harmonic,
		Values:   values,
		Matches:  a.Classifier().Match(obs),
		Result:   a.Classify(obs),
	}

	if !humanOutput(a) {
		return emit(a, result)
	}

	printHeader("Pulse Classification", result.CallType)
	for _, f := range species.Fields {
		if v, ok := values[string(f)]; ok {
			printKeyValue(string(f), fmt.Sprintf("%g", v))
		}
	}
	fmt.Println()
	if result.Result == species.NoMatch {
		printWarning("%s", result.Result)
		return nil
	}
	printSuccess("%s", result.Result)
	if len(result.Matches) > 1 {
		printInfo("All matches: %s", strings.Join(result.Matches, ", "))
	}
	return nil
}
