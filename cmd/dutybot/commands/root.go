package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	configPath string
	jsonLogs   bool
	debugLogs  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dutybot",
	Short: "Dutybot - duty roster topic synchronizer",
	Long: `Dutybot keeps chat conversation topics in sync with duty rosters
maintained in spreadsheets.

It periodically reads rotation calendars and duty-name rosters from
Google Sheets, resolves today's duty person for each configured task,
and patches the mention at the task's position in the conversation
topic. Anomalies are reported to a configured admin via direct message.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "dutybot.yml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging")
}
