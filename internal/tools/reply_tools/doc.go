// Package reply_tools exposes the reply pipeline to MCP clients.
//
// Tools:
//   - reply_run_job: draft a reply for a thread and return the finished job
//   - reply_get_job: fetch a job by id
//   - gmail_list_threads: list recent threads of a project's mailbox
package reply_tools
