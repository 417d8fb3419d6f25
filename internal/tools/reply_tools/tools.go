package reply_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxreply/internal/draft"
	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/jobs"
	"github.com/teemow/inboxreply/internal/tools/common"
)

// Service is the part of the orchestrator the tools call.
type Service interface {
	Run(ctx context.Context, req jobs.RunRequest) (string, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	ListThreads(ctx context.Context, projectID string, maxResults int) []gmail.ThreadSummary
}

// RegisterReplyTools registers the reply tools with the MCP server.
func RegisterReplyTools(s *mcpserver.MCPServer, svc Service, metrics *instrumentation.Metrics, logger *slog.Logger) {
	runJobTool := newRunJobTool()
	s.AddTool(runJobTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("reply_run_job", metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRunJob(ctx, request, svc)
		})))

	getJobTool := mcp.NewTool("reply_get_job",
		mcp.WithDescription("Get a reply job by ID"),
		mcp.WithString("jobId",
			mcp.Required(),
			mcp.Description("Job ID returned by reply_run_job"),
		),
	)
	s.AddTool(getJobTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("reply_get_job", metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetJob(ctx, request, svc)
		})))

	listThreadsTool := mcp.NewTool("gmail_list_threads",
		mcp.WithDescription("List recent Gmail threads of a project's mailbox"),
		mcp.WithString("projectId",
			mcp.Description("Project whose Gmail connection is used (default: 'default')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of threads (default: %d, max: %d)", gmail.DefaultMaxResults, gmail.MaxMaxResults)),
		),
	)
	s.AddTool(listThreadsTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("gmail_list_threads", metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListThreads(ctx, request, svc)
		})))
}

// parseLength accepts a size name or a word count.
func parseLength(v interface{}) (*draft.Length, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		l := draft.ParseLength(x)
		return &l, nil
	case float64:
		if x < 1 {
			return nil, fmt.Errorf("length must be at least 1 word")
		}
		return &draft.Length{Words: int(x)}, nil
	}
	return nil, fmt.Errorf("length must be a string or number")
}

func handleRunJob(ctx context.Context, request mcp.CallToolRequest, svc Service) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	length, err := parseLength(args["length"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := jobs.RunRequest{
		ProjectID: common.ProjectFromArgs(args),
		Input:     common.StringArg(args, "input"),
		Meta: &jobs.RunMeta{
			ThreadID: common.StringArg(args, "threadId"),
			Tone:     common.StringArg(args, "tone"),
			Length:   length,
			Bullets:  common.BoolArg(args, "bullets"),
		},
	}

	id, err := svc.Run(ctx, req)
	if err != nil {
		var rerr *jobs.RequestError
		if errors.As(err, &rerr) {
			return mcp.NewToolResultError(rerr.Detail), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run job: %v", err)), nil
	}

	job, err := svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Job %s finished but could not be loaded: %v", id, err)), nil
	}
	return jsonResult(job)
}

func handleGetJob(ctx context.Context, request mcp.CallToolRequest, svc Service) (*mcp.CallToolResult, error) {
	id := common.StringArg(request.GetArguments(), "jobId")
	if id == "" {
		return mcp.NewToolResultError("jobId is required"), nil
	}

	job, err := svc.Get(ctx, id)
	if errors.Is(err, jobs.ErrNotFound) {
		return mcp.NewToolResultError("Job not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get job: %v", err)), nil
	}
	return jsonResult(job)
}

func handleListThreads(ctx context.Context, request mcp.CallToolRequest, svc Service) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	threads := svc.ListThreads(ctx, common.ProjectFromArgs(args), common.IntArg(args, "maxResults", gmail.DefaultMaxResults))

	result := fmt.Sprintf("Found %d threads:\n", len(threads))
	for i, thread := range threads {
		result += fmt.Sprintf("%d. Thread ID: %s | %s | From: %s | %s\n", i+1, thread.ID, thread.Subject, thread.From, thread.Snippet)
	}
	return mcp.NewToolResultText(result), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// newRunJobTool describes reply_run_job. Defaults named here follow
// draft.Controls.Normalize.
func newRunJobTool() mcp.Tool {
	return mcp.NewTool("reply_run_job",
		mcp.WithDescription("Draft a reply to an email thread. Returns the finished job with the draft text and metadata."),
		mcp.WithString("projectId",
			mcp.Description("Project whose Gmail connection is used (default: 'default')"),
		),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("Gmail thread ID to reply to"),
		),
		mcp.WithString("input",
			mcp.Description("Optional guidance for the reply, e.g. 'accept the meeting, propose Tuesday'"),
		),
		mcp.WithString("tone",
			mcp.Description("Reply tone: friendly, formal, brief or professional (default: friendly)"),
		),
		mcp.WithString("length",
			mcp.Description("short, medium, long, or a target word count (default: short)"),
		),
		mcp.WithBoolean("bullets",
			mcp.Description("Include a bullet list of key points"),
		),
	)
}
