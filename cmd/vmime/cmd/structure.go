package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/walker"

	// register the full IANA charset table
	_ "github.com/josusky/vmime/message/header/encoding"
)

var structureCmd = &cobra.Command{
	Use:   "structure message",
	Short: "Print the part tree of a message",
	Args:  cobra.ExactArgs(1),
	RunE:  RunStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)
}

func RunStructure(cmd *cobra.Command, args []string) error {
	msgFile, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = msgFile.Close() }()

	m, err := message.Parse(msgFile, message.WithUnlimitedRecursion())
	if err != nil {
		return err
	}

	return walker.Func(func(depth, i int, part message.Part) error {
		h := part.GetHeader()
		ct := h.EffectiveContentType()

		desc := ct.MediaType()
		if fn, err := h.GetFilename(); err == nil {
			desc += fmt.Sprintf(" (%s)", fn)
		}
		if cid, err := h.GetContentID(); err == nil {
			desc += fmt.Sprintf(" <%s>", cid)
		}

		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), desc)
		return nil
	}).Walk(m)
}
