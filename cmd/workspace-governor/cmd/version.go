package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the kernel, contract, and policy schema versions of workspace-governor.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("workspace-governor %s\n", governor.KernelVersion)
		fmt.Printf("  Contract version:      %s\n", response.ContractVersion)
		fmt.Printf("  Policy schema version: %d\n", governor.PolicySchemaVersion)
		fmt.Printf("  Go version:            %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:               %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
