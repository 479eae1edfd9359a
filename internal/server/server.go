// Package server exposes the pipeline as MCP tools over stdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"cnstock/internal/analysis"
	"cnstock/internal/models"
	"cnstock/internal/pipeline"
	"cnstock/internal/sector"
)

// DefaultSectorLimit caps sector batches when no limit is given.
const DefaultSectorLimit = 20

// Server serves the series, batch and sectors tools.
type Server struct {
	builder  *pipeline.Builder
	analyzer *analysis.Analyzer
	sectors  *sector.Service
	logger   zerolog.Logger
	mcp      *server.MCPServer
}

// New creates a server and registers its tools.
func New(name, version string, builder *pipeline.Builder, analyzer *analysis.Analyzer, sectors *sector.Service, logger zerolog.Logger) *Server {
	s := &Server{
		builder:  builder,
		analyzer: analyzer,
		sectors:  sectors,
		logger:   logger,
		mcp:      server.NewMCPServer(name, version, server.WithToolCapabilities(true)),
	}
	s.mcp.AddTool(seriesTool(), s.handleSeries)
	s.mcp.AddTool(batchTool(), s.handleBatch)
	s.mcp.AddTool(sectorsTool(), s.handleSectors)
	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// SeriesResult is the payload of the series tool.
type SeriesResult struct {
	Report *analysis.Report           `json:"report"`
	Series *models.SecurityTimeSeries `json:"series,omitempty"`
}

// BatchResult is the payload of the batch tool.
type BatchResult struct {
	RunID   string             `json:"run_id"`
	Reports []*analysis.Report `json:"reports"`
	Skipped []string           `json:"skipped,omitempty"`
	Failed  map[string]string  `json:"failed,omitempty"`
}

func (s *Server) handleSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil || strings.TrimSpace(symbol) == "" {
		return errorResult("Error: symbol parameter is required"), nil
	}
	end, err := parseDate(request.GetString("end", ""))
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}

	series, err := s.builder.Build(ctx, strings.ToUpper(symbol), end)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Series build failed")
		return errorResult(fmt.Sprintf("Build error: %v", err)), nil
	}
	report, err := s.analyzer.Analyze(ctx, series)
	if err != nil {
		return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
	}

	out := SeriesResult{Report: report}
	if request.GetBool("full", false) {
		out.Series = series
	}
	return jsonResult(out)
}

func (s *Server) handleBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbols := request.GetStringSlice("symbols", nil)
	if len(symbols) == 0 {
		name := request.GetString("sector", "")
		if name == "" {
			return errorResult("Error: symbols or sector is required"), nil
		}
		limit := request.GetInt("limit", DefaultSectorLimit)
		members, err := s.sectors.Symbols(name, models.Board(request.GetString("board", string(models.BoardAll))), limit)
		if err != nil {
			return errorResult(fmt.Sprintf("Sector error: %v", err)), nil
		}
		symbols = members
	}
	for i := range symbols {
		symbols[i] = strings.ToUpper(symbols[i])
	}

	batch, err := s.builder.BuildBatch(ctx, symbols, time.Time{})
	if err != nil {
		s.logger.Error().Err(err).Strs("symbols", symbols).Msg("Batch build failed")
		return errorResult(fmt.Sprintf("Batch error: %v", err)), nil
	}

	out := BatchResult{RunID: batch.RunID, Reports: []*analysis.Report{}, Skipped: batch.Skipped, Failed: batch.FailureMessages()}
	for _, series := range batch.Series {
		report, err := s.analyzer.Analyze(ctx, series)
		if err != nil {
			return errorResult(fmt.Sprintf("Analysis error for %s: %v", series.Symbol, err)), nil
		}
		out.Reports = append(out.Reports, report)
	}
	return jsonResult(out)
}

func (s *Server) handleSectors(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if symbol := request.GetString("symbol", ""); symbol != "" {
		return jsonResult(map[string][]string{strings.ToUpper(symbol): s.sectors.Lookup(strings.ToUpper(symbol))})
	}
	return jsonResult(s.sectors.Sectors())
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, models.CST)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
