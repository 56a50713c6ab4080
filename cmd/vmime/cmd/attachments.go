package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/josusky/vmime/message"
	"github.com/josusky/vmime/message/attachment"
	"github.com/josusky/vmime/message/transfer"
)

var extractDir string

var attachmentsCmd = &cobra.Command{
	Use:   "attachments message",
	Short: "List the attachments of a message, optionally extracting them",
	Args:  cobra.ExactArgs(1),
	RunE:  RunAttachments,
}

func init() {
	attachmentsCmd.Flags().StringVarP(&extractDir, "extract", "x", "",
		"write each attachment into the given directory")
	rootCmd.AddCommand(attachmentsCmd)
}

func RunAttachments(cmd *cobra.Command, args []string) error {
	msgFile, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = msgFile.Close() }()

	m, err := message.Parse(msgFile, message.WithUnlimitedRecursion())
	if err != nil {
		return err
	}

	for i, att := range attachment.Find(m) {
		name, err := att.GetFilename()
		if err != nil {
			name = fmt.Sprintf("attachment-%d", i+1)
		}

		fmt.Printf("%s\t%s\n", name, att.EffectiveContentType().MediaType())

		if extractDir == "" {
			continue
		}

		r := att.GetReader()
		if att.IsEncoded() {
			r = transfer.ApplyTransferDecoding(att.GetHeader(), r)
		}

		out, err := os.Create(filepath.Join(extractDir, filepath.Base(name)))
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}

	return nil
}
