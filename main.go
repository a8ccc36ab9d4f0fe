package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"oltd/cmd"
	"oltd/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintln(os.Stderr, "oltd crashed; see the log for details")
			os.Exit(1)
		}
	}()

	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
