package cmd

import (
	"fmt"
	"syscall"

	"github.com/hifiberry/audiocontrol3/auth"
	"github.com/hifiberry/audiocontrol3/color"
	"github.com/hifiberry/audiocontrol3/style"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
}

// authCmd is the parent command for backend credential management.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage player backend credentials in the system keyring",
}

// authSetCmd stores a backend password in the keyring.
var authSetCmd = &cobra.Command{
	Use:   "set [player-id]",
	Short: "Store the password for a player backend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		playerID := args[0]

		fmt.Printf("password for %s: ", style.Fg(color.Purple)(playerID))
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		handleErr(err)

		handleErr(auth.SetSecret(playerID, string(secret)))
		fmt.Printf("stored password for %s\n", playerID)
	},
}

// authDeleteCmd removes a backend password from the keyring.
var authDeleteCmd = &cobra.Command{
	Use:   "delete [player-id]",
	Short: "Remove the stored password for a player backend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.DeleteSecret(args[0]))
		fmt.Printf("deleted password for %s\n", args[0])
	},
}
