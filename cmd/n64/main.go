// Command n64 is the CLI entry point: an optional positional ROM path
// auto-boots, then the host window runs until closed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nyxcore/n64core/audio"
	"github.com/nyxcore/n64core/display"
	"github.com/nyxcore/n64core/internal/core"
	"github.com/nyxcore/n64core/internal/logging"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logging.Init(*debug)
	defer logging.Sync()
	log := logging.For("main")

	console := core.NewConsole()

	audioBackend, err := audio.New(console.AI)
	if err != nil {
		log.Warnw("audio backend unavailable, running silent", "error", err)
	} else {
		defer audioBackend.Close()
	}

	if path := flag.Arg(0); path != "" {
		ok, err := console.BootROM(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "boot failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "could not open ROM: %s\n", path)
			os.Exit(1)
		}
	}
	defer console.Shutdown()

	backend := display.New(console.VI, console.PIF)
	if err := display.Run("n64core", backend); err != nil {
		fmt.Fprintf(os.Stderr, "display error: %v\n", err)
		os.Exit(1)
	}
}
