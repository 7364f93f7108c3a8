package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/justyntemme/prism/internal/app"
)

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	configPath := flag.String("config", "", "Config file path (default ~/.config/prism/config.json)")
	warm := flag.String("warm", "", "Pre-resolve every folder under this root into the cache, then exit")
	flag.Parse()

	opts := app.Options{
		ConfigPath: *configPath,
		Debug:      *debug,
		WarmRoot:   app.Home(*warm),
	}
	for _, arg := range flag.Args() {
		opts.Folders = append(opts.Folders, app.Home(arg))
	}

	if err := app.Run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "prism:", err)
		os.Exit(1)
	}
}
