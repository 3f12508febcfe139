package cmd

import (
	"os"

	"github.com/hifiberry/audiocontrol3/addon"
	"github.com/hifiberry/audiocontrol3/color"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(addonsCmd)
	addonsCmd.AddCommand(addonsListCmd)
	addonsListCmd.SetOut(os.Stdout)
}

// addonsCmd is the parent command for addon inspection.
var addonsCmd = &cobra.Command{
	Use:   "addons",
	Short: "Inspect the available engine addons",
}

// addonsListCmd lists cataloged addons and their startup state.
var addonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available addons and whether they are enabled at startup",
	Run: func(cmd *cobra.Command, args []string) {
		enabled := viper.GetStringSlice(key.AddonsEnabled)

		for _, name := range addon.Catalog() {
			if lo.Contains(enabled, name) {
				cmd.Printf("%s %s\n", style.Fg(color.Green)(name), style.Faint("(enabled)"))
			} else {
				cmd.Println(name)
			}
		}
	},
}
