package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"oltd/internal/classify"
	"oltd/internal/log"
	"oltd/internal/session"
)

var (
	runDevice         string
	runHost           string
	runPort           int
	runUsername       string
	runPassword       string
	runEnablePassword string
	runTransport      string
	runCharset        string
	runConfigMode     bool
	runRaw            bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <command> ...",
	Short: "Run commands against one device and print the output",
	Long: `run opens a session, executes each command in order and prints the
classified, formatted output (or the raw response with --raw). Device
coordinates come from the flags or from a named preset in the config file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runDevice, "device", "", "named device preset from the config file")
	f.StringVar(&runHost, "host", "", "device address")
	f.IntVar(&runPort, "port", 0, "device port (default 23 for telnet, 22 for ssh)")
	f.StringVarP(&runUsername, "username", "u", "", "login username")
	f.StringVarP(&runPassword, "password", "p", "", "login password")
	f.StringVar(&runEnablePassword, "enable-password", "", "privileged mode password")
	f.StringVar(&runTransport, "transport", "", `"telnet" (default) or "ssh"`)
	f.StringVar(&runCharset, "charset", "", `device byte encoding, e.g. "latin1"`)
	f.BoolVar(&runConfigMode, "config-mode", false, "enter configuration mode before the commands")
	f.BoolVar(&runRaw, "raw", false, "print raw responses instead of formatted output")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scfg := session.Config{
		ConnectTimeout:     cfg.Session.ConnectTimeout.Duration,
		CommandTimeout:     cfg.Session.CommandTimeout.Duration,
		LongCommandTimeout: cfg.Session.LongCommandTimeout.Duration,
		PageLimit:          cfg.Session.PageLimit,
		Logger:             log.Logger(),
	}

	if runDevice != "" {
		dev, ok := cfg.Devices[runDevice]
		if !ok {
			return fmt.Errorf("unknown device preset %q", runDevice)
		}
		scfg.Host = dev.Host
		scfg.Port = dev.Port
		scfg.Username = dev.Username
		scfg.Password = dev.Password
		scfg.EnablePassword = dev.EnablePassword
		scfg.Transport = dev.Transport
		scfg.Charset = dev.Charset
	}

	// Explicit flags override the preset.
	if runHost != "" {
		scfg.Host = runHost
	}
	if runPort != 0 {
		scfg.Port = runPort
	}
	if runUsername != "" {
		scfg.Username = runUsername
	}
	if runPassword != "" {
		scfg.Password = runPassword
	}
	if runEnablePassword != "" {
		scfg.EnablePassword = runEnablePassword
	}
	if runTransport != "" {
		scfg.Transport = runTransport
	}
	if runCharset != "" {
		scfg.Charset = runCharset
	}

	if scfg.Host == "" {
		return errors.New("a --host or --device is required")
	}

	ctx := cmd.Context()
	sess, err := session.Dial(ctx, scfg)
	if err != nil {
		return err
	}
	defer sess.Disconnect()

	if runConfigMode {
		if _, err := sess.EnterConfigMode(ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for i, command := range args {
		raw, err := sess.Send(ctx, command)
		if err != nil {
			return err
		}

		text := classify.Classify(command, raw).Formatted
		if runRaw {
			text = raw
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}
