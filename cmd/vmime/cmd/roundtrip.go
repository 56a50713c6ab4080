package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/josusky/vmime/message"
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip message",
	Short: "Show the diff of a single message round-trip",
	Args:  cobra.ExactArgs(1),
	RunE:  RunRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
}

func RunRoundtrip(cmd *cobra.Command, args []string) error {
	original, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	m, err := message.Parse(bytes.NewReader(original), message.WithUnlimitedRecursion())
	if err != nil {
		return err
	}

	regenerated := &bytes.Buffer{}
	if _, err := m.WriteTo(regenerated); err != nil {
		return err
	}

	if bytes.Equal(original, regenerated.Bytes()) {
		fmt.Println("round-trip is byte identical")
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(original), regenerated.String(), false)
	fmt.Print(dmp.DiffPrettyText(diffs))

	return nil
}
