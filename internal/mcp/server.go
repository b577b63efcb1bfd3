package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"orderbot/internal/config"
	"orderbot/internal/invoice"
	"orderbot/internal/ledger"
	"orderbot/internal/mangle"
	"orderbot/internal/order"
)

// Messenger is the WhatsApp automation engine.
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
	SendDocument(ctx context.Context, phone, path, caption string) error
	SendImage(ctx context.Context, phone, path, caption string) error
}

type Invoicer interface {
	Generate(customer order.Customer, summary string) (invoice.Invoice, error)
}

// LocatorReporter summarizes which selectors still resolve.
type LocatorReporter interface {
	WinningCandidates(target string) []mangle.CandidateStat
	Misses() map[string]int
	StrategyOutcomes() map[string]int
}

type DeliveryLog interface {
	Deliveries(ctx context.Context, day time.Time, orderNumber int) ([]ledger.Delivery, error)
	DeliveriesByRun(ctx context.Context, runID string) ([]ledger.Delivery, error)
}

// Tracer opens a trace file per send so engine steps are recorded.
type Tracer interface {
	Start(runID string) error
	Log(eventType string, data interface{})
}

// Deps are the components exposed as tools. Nil members disable their tools.
type Deps struct {
	Messenger Messenger
	Invoices  Invoicer
	Locators  LocatorReporter
	Ledger    DeliveryLog
	Tracer    Tracer
}

// Server exposes the bot's operations over MCP.
type Server struct {
	cfg       config.Config
	deps      Deps
	logger    *zap.Logger
	tools     map[string]Tool
	mcpServer *mcpserver.MCPServer
}

// Tool describes the contract for MCP tool implementations.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// NewServer constructs the MCP server and registers every available tool.
func NewServer(cfg config.Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)

	server := &Server{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		tools:     make(map[string]Tool),
		mcpServer: mcpSrv,
	}

	server.registerAllTools()
	server.registerAllResources()
	return server, nil
}

// Start serves over stdio.
func (s *Server) Start(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// StartSSE hosts the server over HTTP using SSE endpoints with graceful shutdown.
func (s *Server) StartSSE(ctx context.Context, port int) error {
	sseServer := mcpserver.NewSSEServer(s.mcpServer, mcpserver.WithBaseURL("http://localhost:"+strconv.Itoa(port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("SSE server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ExecuteTool runs a tool directly, bypassing the transport.
func (s *Server) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	tool, exists := s.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(ctx, args)
}

func (s *Server) registerAllTools() {
	if m := s.deps.Messenger; m != nil {
		tr := sendTracer{tracer: s.deps.Tracer, logger: s.logger}
		s.registerTool(&SendMessageTool{messenger: m, trace: tr})
		s.registerTool(&SendDocumentTool{messenger: m, trace: tr})
		s.registerTool(&SendImageTool{messenger: m, trace: tr})
	}

	s.registerTool(&ParseOrderTool{})
	s.registerTool(&DirectLinkTool{countryCode: s.cfg.WhatsApp.DefaultCountryCode, qrDir: s.cfg.WhatsApp.QRDir})
	if s.deps.Invoices != nil {
		s.registerTool(&GenerateInvoiceTool{invoices: s.deps.Invoices})
	}

	if s.deps.Locators != nil {
		s.registerTool(&LocatorReportTool{locators: s.deps.Locators})
	}
	if s.deps.Ledger != nil {
		s.registerTool(&DeliveryJournalTool{ledger: s.deps.Ledger, now: time.Now})
	}
}

func (s *Server) registerTool(tool Tool) {
	s.tools[tool.Name()] = tool

	schema, err := json.Marshal(tool.InputSchema())
	if err != nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	mcpTool := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema)
	s.mcpServer.AddTool(mcpTool, s.wrapTool(tool))
}

func (s *Server) wrapTool(tool Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", tool.Name()), zap.Error(err))
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("tool %s failed: %v", tool.Name(), err))},
				IsError: true,
			}, nil
		}

		payload := marshalToolPayload(tool.Name(), result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(payload))},
			IsError: false,
		}, nil
	}
}

func marshalToolPayload(toolName string, result interface{}) []byte {
	payload, marshalErr := json.Marshal(result)
	if marshalErr == nil {
		return payload
	}

	fallback := map[string]interface{}{
		"success": false,
		"error":   fmt.Sprintf("tool %s returned non-serializable payload: %v", toolName, marshalErr),
	}
	payload, fallbackErr := json.Marshal(fallback)
	if fallbackErr == nil {
		return payload
	}

	return []byte(fmt.Sprintf(`{"success":false,"error":"tool %s failed to encode payload"}`, toolName))
}
