package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	klask "github.com/klask-search/klask"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(klask.VersionString())
		},
	}
}
