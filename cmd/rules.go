package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

var rulesSpecies string

// RuleClause is one printable rule alternative
type RuleClause struct {
	CallTypes   []string          `json:"call_types,omitempty" yaml:"call_types,omitempty"`
	Harmonics   []int             `json:"harmonics,omitempty" yaml:"harmonics,omitempty"`
	Constraints map[string]string `json:"constraints" yaml:"constraints"`
}

// RuleEntry is one printable species of the rule table
type RuleEntry struct {
	Name  string       `json:"name" yaml:"name"`
	Rules []RuleClause `json:"rules" yaml:"rules"`
}

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules [flags]",
	Short: "List the species rule table",
	Long: `List every species of the active rule table with its call type, harmonic
and measurement constraints.

Examples:
  batscope rules
  batscope rules --species abramus -o yaml`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesSpecies, "species", "",
		"only list species whose name contains this text")
	rulesCmd.Flags().String("rules", "",
		"species rule table YAML (default is the embedded table)")
}

func runRules(cmd *cobra.Command, args []string) error {
	overrideConfig(cmd, "rules", "classifier.rules_file")
	a, err := newApp()
	if err != nil {
		return err
	}

	var entries []RuleEntry
	for _, s := range a.Classifier().Species() {
		if rulesSpecies != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(rulesSpecies)) {
			continue
		}
		entries = append(entries, ruleEntry(s))
	}

	if !humanOutput(a) {
		return emit(a, entries)
	}

	printHeader("Species Rules", fmt.Sprintf("%d species", len(entries)))
	for _, e := range entries {
		printSectionHeader(e.Name)
		for i, c := range e.Rules {
			scope := "any call type"
			if len(c.CallTypes) > 0 {
				scope = strings.Join(c.CallTypes, ", ")
			}
			if len(c.Harmonics) > 0 {
				scope += fmt.Sprintf(", harmonic %v", c.Harmonics)
			}
			printInfo("Rule %d: %s", i+1, scope)
			for _, f := range species.Fields {
				if v, ok := c.Constraints[string(f)]; ok {
					printKeyValue(string(f), v)
				}
			}
		}
		fmt.Println()
	}
	return nil
}

func ruleEntry(s species.Species) RuleEntry {
	e := RuleEntry{Name: s.Name}
	for _, clause := range s.Rules {
		c := RuleClause{
			CallTypes:   clause.CallTypes,
			Harmonics:   clause.Harmonics,
			Constraints: make(map[string]string, len(clause.Constraints)),
		}
		for f, constraint := range clause.Constraints {
			c.Constraints[string(f)] = constraint.String()
		}
		e.Rules = append(e.Rules, c)
	}
	return e
}
