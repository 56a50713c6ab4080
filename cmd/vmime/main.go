package main

import (
	"github.com/spf13/cobra"

	"github.com/josusky/vmime/cmd/vmime/cmd"
)

func main() {
	err := cmd.Execute()
	cobra.CheckErr(err)
}
