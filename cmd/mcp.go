package cmd

import (
	"context"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"nutriai/internal/ai/profile"
	"nutriai/internal/ai/tools"
)

const mcpServerVersion = "1.0.0"

// mcpCmd exposes the registry's tools to MCP clients over stdio.
var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve the nutrition search tool as an MCP server over stdio",
	RunE:         runMCP,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(mcpCmd)

	// stdout carries the protocol; keep cobra's own output off it
	mcpCmd.SetOut(os.Stderr)
	mcpCmd.SetErr(os.Stderr)
}

func runMCP(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	sp, err := loadSearchProfile()
	if err != nil {
		return err
	}
	if err := profile.ValidateSearch(sp); err != nil {
		return err
	}
	searcher, err := newSearcher(sp)
	if err != nil {
		return err
	}
	reg, err := newRegistry(searcher)
	if err != nil {
		return err
	}

	s := newMCPServer(reg)
	log.Printf("serving %d tool(s) over stdio (search via %s)", len(reg.List()), sp.Provider)
	return server.ServeStdio(s)
}

func newMCPServer(reg *tools.Registry) *server.MCPServer {
	s := server.NewMCPServer("nutriai", mcpServerVersion, server.WithToolCapabilities(false))
	for _, def := range reg.List() {
		s.AddTool(mcpTool(def), mcpHandler(reg, def.Name))
	}
	return s
}

func mcpTool(def tools.Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Parameters {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case tools.ParamNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case tools.ParamBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			if len(p.Enum) > 0 {
				propOpts = append(propOpts, mcp.Enum(p.Enum...))
			}
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

func mcpHandler(reg *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Printf("→ tool=%s args=%v", name, req.Params.Arguments)
		res, err := reg.Call(ctx, name, req.Params.Arguments)
		if err != nil {
			log.Printf("✗ %s error: %v", name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Printf("✓ %s response length=%d", name, len(res.Text))
		return mcp.NewToolResultText(res.Text), nil
	}
}
