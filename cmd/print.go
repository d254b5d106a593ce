package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hkbatradar/Spectrogram/internal/app"
)

// Terminal colours for the human readable table output
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
)

// newApp builds the application from the bound viper configuration
func newApp() (*app.App, error) {
	return app.New(appContext())
}

// appContext collects the global flags shared by every command
func appContext() *app.Context {
	return &app.Context{
		OutputFile:   outputFile,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
	}
}

// overrideConfig copies an explicitly set flag into a config key shared by
// several commands
func overrideConfig(cmd *cobra.Command, flag, key string) {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		viper.Set(key, f.Value.String())
	}
}

// humanOutput reports whether results go to a terminal as a table
func humanOutput(a *app.App) bool {
	return outputFile == "" && a.Config().OutputFormat == "table"
}

// emit writes data through the configured formatter
func emit(a *app.App, data any) error {
	return a.Output(data, os.Stdout)
}

func printHeader(title, subject string) {
	fmt.Printf("%s%s%s%s: %s%s%s\n", ColorBold, ColorBlue, title, ColorReset, ColorCyan, subject, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorBlue, strings.Repeat("═", 80), ColorReset)
}

func printSectionHeader(title string) {
	fmt.Printf("%s%s%s%s\n", ColorBold, ColorBlue, title, ColorReset)
}

func printSuccess(format string, args ...any) {
	fmt.Printf("   %s✓%s %s\n", ColorGreen, ColorReset, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Printf("   %s⚠%s %s\n", ColorYellow, ColorReset, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Printf("   %s✗%s %s\n", ColorRed, ColorReset, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("   %s•%s %s\n", ColorCyan, ColorReset, fmt.Sprintf(format, args...))
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("      %-28s\n", key)
	} else {
		fmt.Printf("      %-28s %s\n", key+":", value)
	}
}
