package server

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// seriesTool returns the series tool definition
func seriesTool() mcp.Tool {
	return mcp.NewTool("series",
		mcp.WithDescription("Build the adjusted daily series of one A-share symbol with indicators, capital flow and valuation"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Symbol with exchange prefix, e.g. SH600519 or SZ000001"),
		),
		mcp.WithString("end",
			mcp.Description("Last date to include, YYYY-MM-DD (default: today)"),
		),
		mcp.WithBoolean("full",
			mcp.Description("Include the full fused series arrays (default: false)"),
		),
	)
}

// batchTool returns the batch tool definition
func batchTool() mcp.Tool {
	return mcp.NewTool("batch",
		mcp.WithDescription("Build reports for several symbols, given explicitly or as the members of a sector"),
		mcp.WithArray("symbols",
			mcp.WithStringItems(),
			mcp.Description("Symbols to build"),
		),
		mcp.WithString("sector",
			mcp.Description("Sector whose members are built when symbols is empty"),
		),
		mcp.WithString("board",
			mcp.Description("Board filter for sector members: all, main, star, gem (default: all)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum sector members (default: 20)"),
		),
	)
}

// sectorsTool returns the sectors tool definition
func sectorsTool() mcp.Tool {
	return mcp.NewTool("sectors",
		mcp.WithDescription("List sector names, or the sectors of one symbol"),
		mcp.WithString("symbol",
			mcp.Description("Symbol to look up (default: list every sector)"),
		),
	)
}
