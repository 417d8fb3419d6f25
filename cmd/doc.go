// Package cmd implements the command-line interface for inboxreply.
//
// This package provides the following commands:
//   - serve: Start the HTTP API (with MCP at /mcp) or an MCP stdio server
//   - draft: Run one reply job and print the result
//   - threads: List recent threads of a project's mailbox
//   - version: Display version information
//
// serve is the default command when no subcommand is specified.
package cmd
