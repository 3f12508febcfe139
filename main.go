// Package main is the entry point for the audiocontrol3 daemon.
package main

import (
	"github.com/hifiberry/audiocontrol3/cmd"
	"github.com/hifiberry/audiocontrol3/config"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/version"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Prune expired cache entries in the background.
	go version.CollectGarbage()

	cmd.Execute()
}
