// Package cmd implements the command-line interface for audiocontrol3.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hifiberry/audiocontrol3/addon"
	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/color"
	"github.com/hifiberry/audiocontrol3/constant"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/hifiberry/audiocontrol3/server"
	"github.com/hifiberry/audiocontrol3/style"
	"github.com/hifiberry/audiocontrol3/ui"
	"github.com/hifiberry/audiocontrol3/version"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")
	rootCmd.Flags().BoolP("tui", "t", false, "Show the interactive playback status screen")

	rootCmd.Flags().Float64("auto-progress", 0, "Emit synthesized position events every N seconds (0 disables)")
	lo.Must0(viper.BindPFlag(key.ControllerAutoProgress, rootCmd.Flags().Lookup("auto-progress")))

	rootCmd.Flags().StringSliceP("player", "p", []string{}, "Player backends to start with, overriding the configuration")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("player", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return player.Types(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.PlayersDefault, rootCmd.Flags().Lookup("player")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd runs the player coordination daemon.
var rootCmd = &cobra.Command{
	Use:   constant.AudioControl,
	Short: "A coordination daemon for multiple audio player backends",
	Long: style.New().Italic(true).Foreground(color.HiBlue).
		Render("    audiocontrol3 - one remote control for every player on the system"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(runDaemon(lo.Must(cmd.Flags().GetBool("tui"))))
	},
}

// runDaemon wires the engine, backends, addons, and outward surfaces, then
// blocks until a termination signal or TUI exit.
func runDaemon(withTUI bool) error {
	engine := audiocontroller.New()
	defer func() { _ = engine.Close() }()

	registerConfiguredPlayers(engine)

	addons := addon.NewManager(engine)
	if err := addons.LoadAll(); err != nil {
		return err
	}
	for _, name := range viper.GetStringSlice(key.AddonsEnabled) {
		if err := addons.Enable(name); err != nil {
			log.Warnf("enabling addon %s: %v", name, err)
		}
	}
	defer addons.DisableAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiErr := make(chan error, 1)
	if viper.GetBool(key.APIEnable) {
		api := server.New(engine, addons)
		go func() {
			apiErr <- api.Start(ctx)
		}()
	}

	if withTUI {
		return ui.Run(engine)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		log.Infof("received %s, shutting down", sig)
		return nil
	case err := <-apiErr:
		return err
	}
}

// registerConfiguredPlayers builds the configured backends. A backend that
// cannot be built is skipped; an empty registry falls back to the null player
// so commands degrade gracefully instead of crashing.
func registerConfiguredPlayers(engine *audiocontroller.AudioController) {
	for _, typeTag := range viper.GetStringSlice(key.PlayersDefault) {
		configdata := map[string]any{}
		if sub := viper.Sub("players." + typeTag); sub != nil {
			configdata = sub.AllSettings()
		}

		ctrl, err := player.Create(typeTag, configdata)
		if err != nil {
			log.Warnf("skipping player %s: %v", typeTag, err)
			continue
		}
		if err := engine.Register(ctrl); err != nil {
			log.Warnf("skipping player %s: %v", typeTag, err)
			_ = ctrl.Close()
		}
	}

	if len(engine.IDs()) == 0 {
		log.Warnf("no players configured, registering the null player")
		ctrl := lo.Must(player.Create("null", nil))
		lo.Must0(engine.Register(ctrl))
	}
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n",
			style.Fg(color.Red)("✗"),
			strings.Trim(err.Error(), " \n"),
		)
		os.Exit(1)
	}
}
