package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxreply application
var rootCmd = &cobra.Command{
	Use:   "inboxreply",
	Short: "Drafts and sends AI-written replies to Gmail threads",
	Long: `inboxreply fetches a Gmail thread, drafts a reply with a language model
(or a template when no model is available) and lets you send it back into
the thread.

It can run as:
  - An HTTP API for the web app, with an MCP endpoint at /mcp
  - An MCP (Model Context Protocol) server over stdio for AI assistants
  - One-shot CLI commands (draft, threads)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxreply version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDraftCmd())
	rootCmd.AddCommand(newThreadsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of inboxreply",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("inboxreply version %s\n", version)
		},
	}
}
