package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phpmdls/internal/lsp"
	"phpmdls/internal/phpmd"
	"phpmdls/internal/version"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the phpmd language server over stdio",
	Long: `Run the language server over stdio. The flags set the base configuration;
a .phpmdls.toml above the workspace root and the client's initializationOptions
override it in that order.`,
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	addToolFlags(lspCmd)
}

func runLSP(cmd *cobra.Command, _ []string) error {
	overrides, err := toolOverrides(cmd)
	if err != nil {
		return err
	}
	base := phpmd.DefaultConfig().Apply(overrides)

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Config:  &base,
		Version: version.Version,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
