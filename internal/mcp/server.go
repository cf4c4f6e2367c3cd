// Package mcp exposes the extraction engine over the Model Context
// Protocol. It is the transport layer: receive a dump, check the caller's
// permission, call the engine, return the bucketed blobs. Stdio transport
// only.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xxxserbagd-cmyk/germasik/internal/access"
	"github.com/xxxserbagd-cmyk/germasik/internal/engine"
	"github.com/xxxserbagd-cmyk/germasik/internal/store"
)

// ServerConfig holds dependencies for the MCP server.
type ServerConfig struct {
	Engine  *engine.Engine
	Store   store.Store
	Access  *access.Manager // nil disables permission checks
	Version string
}

// storeMu serializes tool handlers that touch the shared store. The mcp-go
// library dispatches handlers on separate goroutines; the file-backed store
// rewrites its whole file on insert, so handler calls must not interleave.
var storeMu sync.Mutex

// NewServer creates the MCP server with every tool registered.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Germasik",
		ver,
		server.WithToolCapabilities(false),
	)

	registerProcessTool(s, cfg)
	registerStatsTool(s, cfg)
	registerClearTool(s, cfg)
	registerAccessListTool(s, cfg)
	registerAccessRequestTool(s, cfg)
	registerAccessApproveTool(s, cfg)
	registerAccessDenyTool(s, cfg)

	return s
}

// callerAllowed checks the optional user_id argument against the access
// manager. With no manager configured every caller is allowed.
func callerAllowed(cfg ServerConfig, req mcp.CallToolRequest) bool {
	if cfg.Access == nil {
		return true
	}
	id, err := req.RequireFloat("user_id")
	if err != nil {
		return false
	}
	return cfg.Access.IsAllowed(int64(id))
}

// callerAdmin checks the user_id argument against the admin list. With no
// manager configured every caller passes, matching callerAllowed.
func callerAdmin(cfg ServerConfig, req mcp.CallToolRequest) bool {
	if cfg.Access == nil {
		return true
	}
	id, err := req.RequireFloat("user_id")
	if err != nil {
		return false
	}
	return cfg.Access.IsAdmin(int64(id)) || cfg.Access.IsOwner(int64(id))
}

func registerProcessTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("process_dump",
		mcp.WithDescription("Extract structured identity records from a raw text dump, deduplicate by full name against the fingerprint store, and return valid/invalid/duplicate buckets with counts."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw dump text to process"),
		),
		mcp.WithString("source",
			mcp.Description("Source name for logging and error messages (default: mcp-input)"),
		),
		mcp.WithNumber("user_id",
			mcp.Description("Caller user ID for the access check"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !callerAllowed(cfg, req) {
			return mcp.NewToolResultError("access denied: request access from an administrator"), nil
		}

		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		source := "mcp-input"
		if v, err := req.RequireString("source"); err == nil && v != "" {
			source = v
		}

		storeMu.Lock()
		res, err := cfg.Engine.Process(text, source)
		storeMu.Unlock()
		if err != nil {
			var exErr *engine.ExtractionError
			if errors.As(err, &exErr) {
				return mcp.NewToolResultError(exErr.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("processing error: %v", err)), nil
		}

		payload := map[string]interface{}{
			"valid_count":     res.ValidCount,
			"invalid_count":   res.InvalidCount,
			"duplicate_count": res.DuplicateCount,
			"total_count":     res.TotalCount,
			"store_count":     res.StoreStats.Count,
			"valid":           res.Valid,
			"invalid":         res.Invalid,
			"duplicates":      res.Duplicates,
			"all":             res.All,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("store_stats",
		mcp.WithDescription("Report how many unique name fingerprints the store currently holds."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("user_id",
			mcp.Description("Caller user ID for the access check"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !callerAllowed(cfg, req) {
			return mcp.NewToolResultError("access denied: request access from an administrator"), nil
		}

		storeMu.Lock()
		stats := cfg.Store.Stats()
		storeMu.Unlock()

		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerClearTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("store_clear",
		mcp.WithDescription("Drop every stored name fingerprint. Admin only; every previously seen name will be treated as new afterwards."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithNumber("user_id",
			mcp.Description("Caller user ID; must be an admin or the owner"),
		),
	)
	s.AddTool(tool, newClearHandler(cfg))
}

func newClearHandler(cfg ServerConfig) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !callerAdmin(cfg, req) {
			return mcp.NewToolResultError("admin privileges required"), nil
		}

		storeMu.Lock()
		err := cfg.Store.Clear()
		storeMu.Unlock()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("clearing store: %v", err)), nil
		}
		return mcp.NewToolResultText("store cleared"), nil
	}
}

func registerAccessListTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("access_list",
		mcp.WithDescription("List allowed users, admins, and pending access requests. Admin only."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Caller user ID; must be an admin or the owner"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if cfg.Access == nil {
			return mcp.NewToolResultError("access control is not configured"), nil
		}
		id, err := req.RequireFloat("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		if !cfg.Access.IsAdmin(int64(id)) {
			return mcp.NewToolResultError("admin privileges required"), nil
		}

		payload := map[string]interface{}{
			"owner_id": cfg.Access.OwnerID(),
			"admins":   cfg.Access.Admins(),
			"allowed":  cfg.Access.AllowedUsers(),
			"requests": cfg.Access.Requests(),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAccessRequestTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("access_request",
		mcp.WithDescription("Queue an access request for an unknown user. Admins approve or deny it out of band."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Requesting user ID"),
		),
		mcp.WithString("username",
			mcp.Description("Display name for the request"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if cfg.Access == nil {
			return mcp.NewToolResultError("access control is not configured"), nil
		}
		id, err := req.RequireFloat("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		username := ""
		if v, err := req.RequireString("username"); err == nil {
			username = v
		}
		if !cfg.Access.RequestAccess(int64(id), username) {
			return mcp.NewToolResultError("request already pending"), nil
		}
		return mcp.NewToolResultText("access request queued"), nil
	})
}

func registerAccessApproveTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("access_approve",
		mcp.WithDescription("Approve a pending access request, moving the user onto the allow list. Admin only."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Caller user ID; must be an admin or the owner"),
		),
		mcp.WithNumber("target_id",
			mcp.Required(),
			mcp.Description("User whose pending request is approved"),
		),
	)
	s.AddTool(tool, newAccessDecisionHandler(cfg, true))
}

func registerAccessDenyTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("access_deny",
		mcp.WithDescription("Deny and discard a pending access request. Admin only."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Caller user ID; must be an admin or the owner"),
		),
		mcp.WithNumber("target_id",
			mcp.Required(),
			mcp.Description("User whose pending request is denied"),
		),
	)
	s.AddTool(tool, newAccessDecisionHandler(cfg, false))
}

func newAccessDecisionHandler(cfg ServerConfig, approve bool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if cfg.Access == nil {
			return mcp.NewToolResultError("access control is not configured"), nil
		}
		caller, err := req.RequireFloat("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		target, err := req.RequireFloat("target_id")
		if err != nil {
			return mcp.NewToolResultError("target_id is required"), nil
		}

		var ok bool
		if approve {
			ok = cfg.Access.ApproveRequest(int64(target), int64(caller))
		} else {
			ok = cfg.Access.DenyRequest(int64(target), int64(caller))
		}
		if !ok {
			return mcp.NewToolResultError("no pending request for that user, or you lack permission"), nil
		}
		if approve {
			return mcp.NewToolResultText("access approved"), nil
		}
		return mcp.NewToolResultText("access denied"), nil
	}
}
