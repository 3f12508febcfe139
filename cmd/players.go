package cmd

import (
	"os"

	"github.com/hifiberry/audiocontrol3/color"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/hifiberry/audiocontrol3/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playersCmd)
	playersCmd.AddCommand(playersTypesCmd)
	playersCmd.AddCommand(playersListCmd)

	playersTypesCmd.SetOut(os.Stdout)
	playersListCmd.SetOut(os.Stdout)
}

// playersCmd is the parent command for player backend inspection.
var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Inspect available and configured player backends",
}

// playersTypesCmd lists every backend type the build supports.
var playersTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the player backend types this build supports",
	Run: func(cmd *cobra.Command, args []string) {
		for _, typeTag := range player.Types() {
			cmd.Println(typeTag)
		}
	},
}

// playersListCmd shows the backends the daemon would start with.
var playersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the player backends configured for startup",
	Run: func(cmd *cobra.Command, args []string) {
		configured := viper.GetStringSlice(key.PlayersDefault)
		if len(configured) == 0 {
			cmd.Println(style.Faint("no players configured"))
			return
		}

		known := player.Types()
		for _, typeTag := range configured {
			if lo.Contains(known, typeTag) {
				cmd.Println(style.Fg(color.Green)(typeTag))
			} else {
				cmd.Printf("%s %s\n", style.Fg(color.Red)(typeTag), style.Faint("(unknown type)"))
			}
		}
	},
}
