package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"oltd/internal/ansi"
	"oltd/internal/classify"
)

var (
	classifyCommand string
	classifyJSON    bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify captured device output offline",
	Long: `classify runs the response classifier over previously captured device
output, with no device connection. It reads the named file, or stdin when no
file is given, cleans the byte stream the way a live session would and prints
the formatted rendition. --command supplies the command line the capture
answers; shape detection keys off it exactly as it does for live sessions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyCommand, "command", "", "command line the captured output answers")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "emit the full classification as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	resp := classify.Classify(classifyCommand, ansi.Clean(string(data)))

	out := cmd.OutOrStdout()
	if classifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprint(out, resp.Formatted)
	if !strings.HasSuffix(resp.Formatted, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}
