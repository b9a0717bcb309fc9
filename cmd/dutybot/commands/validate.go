package commands

import (
	"github.com/spf13/cobra"

	"dutybot/internal/config"
	"dutybot/internal/printer"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without starting the engine.

Checks YAML syntax, task fields and duplicate task names, and prints a
summary of the resulting schedule. Credentials are not verified.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return printer.Error("configuration invalid", err.Error(), []string{
			"Fix the reported field and re-run: dutybot validate",
		})
	}

	printer.Success("%s is valid\n\n", configPath)
	printer.Printf("Update interval: %s\n", cfg.Interval())
	if cfg.Admin != "" {
		printer.Printf("Admin:           %s\n", cfg.Admin)
	} else {
		printer.Warning("no admin configured, anomaly notifications are disabled\n")
	}

	printer.Printf("\nTimetables (%d):\n", len(cfg.Timetables))
	for _, task := range cfg.Timetables {
		state := ""
		if task.Disabled {
			state = " [disabled]"
		}
		printer.Printf("  %s → #%s at %s, mention index %d%s\n",
			task.Name, task.Channel, task.UpdateTime.String(), task.DevIndex, state)
	}

	if len(cfg.EnabledTasks()) == 0 {
		printer.Warning("all timetables are disabled, the engine would do nothing\n")
	}
	return nil
}
