package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperdex/paperdex/internal/kb"
	"github.com/paperdex/paperdex/internal/refs"
	"github.com/paperdex/paperdex/internal/retrieve"
	"github.com/paperdex/paperdex/pkg/version"
)

// DefaultMaxPapers is the default document count for add_knowledge_topic.
const DefaultMaxPapers = 5

// KnowledgeBase is the surface the server needs from the knowledge base.
type KnowledgeBase interface {
	AddTopic(ctx context.Context, topic string, maxDocuments int) int
	Ask(ctx context.Context, question string, maxResults int, opts ...retrieve.Option) []retrieve.QueryResult
	Resolve(ctx context.Context, sourceID string) (refs.Reference, bool)
	Stats(ctx context.Context) (kb.Stats, error)
}

// Server is the MCP server for paperdex. It bridges AI clients with the
// paper knowledge base.
type Server struct {
	mcp    *mcp.Server
	kb     KnowledgeBase
	logger *slog.Logger
}

// NewServer creates an MCP server over the given knowledge base.
func NewServer(knowledge KnowledgeBase, logger *slog.Logger) (*Server, error) {
	if knowledge == nil {
		return nil, errors.New("knowledge base is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		kb:     knowledge,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "paperdex",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "add_knowledge_topic",
		Description: "Downloads and studies physics papers on a topic from arXiv, " +
			"including linked GitHub repositories. Use this to expand the knowledge base " +
			"before consulting it, e.g. with topics like 'Lambertian Reflectance' or 'Shadow Analysis'.",
	}, s.addTopicHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "consult_physics_expert",
		Description: "Queries the local physics knowledge base and returns passages with " +
			"citations (paper title, ID, page). Use this BEFORE answering any physics question " +
			"so the response is grounded in scientific literature.",
	}, s.consultHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "verify_source",
		Description: "Retrieves the full citation details of a referenced paper by its arXiv ID. " +
			"Use this to verify any paper cited in a knowledge base response.",
	}, s.verifySourceHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_knowledge_stats",
		Description: "Returns statistics about the current knowledge base. " +
			"Use this to check how much material is stored before or after ingestion.",
	}, s.statsHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 4))
}

// addTopicHandler ingests papers for a topic.
func (s *Server) addTopicHandler(ctx context.Context, _ *mcp.CallToolRequest, input AddTopicInput) (
	*mcp.CallToolResult,
	AddTopicOutput,
	error,
) {
	if input.Topic == "" {
		return nil, AddTopicOutput{}, NewInvalidParamsError("topic parameter is required")
	}

	maxPapers := input.MaxPapers
	if maxPapers <= 0 {
		maxPapers = DefaultMaxPapers
	}

	stored := s.kb.AddTopic(ctx, input.Topic, maxPapers)

	total := stored
	if stats, err := s.kb.Stats(ctx); err == nil {
		total = stats.TotalEntries
	} else {
		s.logger.Warn("stats unavailable after ingestion",
			slog.String("error", err.Error()))
	}

	return nil, AddTopicOutput{
		Topic:        input.Topic,
		NewEntries:   stored,
		TotalEntries: total,
		Report:       formatIngestReport(input.Topic, stored, total),
	}, nil
}

// consultHandler answers a question from the knowledge base.
func (s *Server) consultHandler(ctx context.Context, _ *mcp.CallToolRequest, input ConsultInput) (
	*mcp.CallToolResult,
	ConsultOutput,
	error,
) {
	if input.Question == "" {
		return nil, ConsultOutput{}, NewInvalidParamsError("question parameter is required")
	}

	results := s.kb.Ask(ctx, input.Question, input.MaxResults)

	output := ConsultOutput{
		Passages: make([]PassageOutput, 0, len(results)),
		Report:   formatConsultReport(input.Question, results),
	}
	for _, r := range results {
		output.Passages = append(output.Passages, PassageOutput{
			Text:      r.Text,
			SourceID:  r.SourceID,
			Title:     r.Title,
			Page:      r.Page,
			URL:       r.URL,
			Relevance: float64(r.Relevance),
		})
	}

	return nil, output, nil
}

// verifySourceHandler resolves a paper ID to its citation.
// An unknown ID is reported in the output, not as a protocol error.
func (s *Server) verifySourceHandler(ctx context.Context, _ *mcp.CallToolRequest, input VerifySourceInput) (
	*mcp.CallToolResult,
	VerifySourceOutput,
	error,
) {
	if input.PaperID == "" {
		return nil, VerifySourceOutput{}, NewInvalidParamsError("paper_id parameter is required")
	}

	ref, ok := s.kb.Resolve(ctx, input.PaperID)
	if !ok {
		return nil, VerifySourceOutput{
			Found:   false,
			PaperID: input.PaperID,
			Report:  formatMissingReference(input.PaperID),
		}, nil
	}

	return nil, VerifySourceOutput{
		Found:   true,
		PaperID: input.PaperID,
		Title:   ref.Title,
		URL:     ref.URL,
		Report:  formatReferenceReport(input.PaperID, ref.Title, ref.URL),
	}, nil
}

// statsHandler reports knowledge base statistics.
func (s *Server) statsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (
	*mcp.CallToolResult,
	StatsOutput,
	error,
) {
	stats, err := s.kb.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, MapError(err)
	}

	return nil, StatsOutput{
		TotalEntries:   stats.TotalEntries,
		EmbeddingModel: stats.EmbeddingModel,
		Dimensions:     stats.Dimensions,
		Report:         formatStatsReport(stats.TotalEntries, stats.EmbeddingModel, stats.Dimensions),
	}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
