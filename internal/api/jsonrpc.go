package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/pkg/logging"
	"github.com/steemit/circlemind/pkg/telemetry"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MethodHandler is a function that handles a JSON-RPC method
type MethodHandler func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

// JSONRPCHandler handles JSON-RPC requests
type JSONRPCHandler struct {
	methods  map[string]MethodHandler
	logger   *zap.Logger
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler() *JSONRPCHandler {
	h := &JSONRPCHandler{
		methods: make(map[string]MethodHandler),
		logger:  logging.WithComponent("jsonrpc"),
	}

	meter := telemetry.Meter()
	var err error
	if h.calls, err = meter.Int64Counter("circlemind.rpc.calls",
		metric.WithDescription("JSON-RPC calls by method and outcome")); err != nil {
		h.logger.Warn("Failed to create call counter", zap.Error(err))
	}
	if h.duration, err = meter.Float64Histogram("circlemind.rpc.duration",
		metric.WithDescription("JSON-RPC call duration"), metric.WithUnit("s")); err != nil {
		h.logger.Warn("Failed to create duration histogram", zap.Error(err))
	}
	return h
}

// RegisterMethod registers a method handler
func (h *JSONRPCHandler) RegisterMethod(method string, handler MethodHandler) {
	h.methods[method] = handler
}

// Methods returns the registered method names.
func (h *JSONRPCHandler) Methods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	return names
}

// Handle handles a JSON-RPC request
func (h *JSONRPCHandler) Handle(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "jsonrpc.handle")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, nil, &JSONRPCError{
			Code:    ErrParseError,
			Message: "Parse error: " + err.Error(),
			Data:    ErrorData{Status: http.StatusBadRequest, Code: "PARSE_ERROR"},
		})
		return
	}

	// Validate JSON-RPC version
	if req.JSONRPC != "2.0" {
		h.sendError(c, req.ID, &JSONRPCError{
			Code:    ErrInvalidRequest,
			Message: "Invalid Request: invalid jsonrpc version",
			Data:    ErrorData{Status: http.StatusBadRequest, Code: "INVALID_REQUEST"},
		})
		return
	}

	// Find method handler
	handler, ok := h.methods[req.Method]
	if !ok {
		h.sendError(c, req.ID, &JSONRPCError{
			Code:    ErrMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
			Data:    ErrorData{Status: http.StatusNotFound, Code: "METHOD_NOT_FOUND"},
		})
		return
	}
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	// Call handler
	start := time.Now()
	result, err := handler(c, req.Params)
	h.record(ctx, req.Method, err, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		h.logError(ctx, req.Method, err)
		h.sendError(c, req.ID, toRPCError(err))
		return
	}

	// Send response
	h.sendResponse(c, req.ID, result)
}

func (h *JSONRPCHandler) record(ctx context.Context, method string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	attrs := metric.WithAttributes(attribute.String("method", method), attribute.String("outcome", outcome))
	if h.calls != nil {
		h.calls.Add(ctx, 1, attrs)
	}
	if h.duration != nil {
		h.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// logError logs internal failures at error level; classified errors are expected outcomes.
func (h *JSONRPCHandler) logError(ctx context.Context, method string, err error) {
	logger := logging.FromContext(ctx, h.logger)
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.Error("JSON-RPC method failed", zap.String("method", method), zap.Error(err))
		return
	}
	logger.Debug("JSON-RPC method rejected", zap.String("method", method), zap.Error(err))
}

// sendResponse sends a successful JSON-RPC response
func (h *JSONRPCHandler) sendResponse(c *gin.Context, id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	c.JSON(http.StatusOK, resp)
}

// sendError sends an error JSON-RPC response
func (h *JSONRPCHandler) sendError(c *gin.Context, id interface{}, rpcErr *JSONRPCError) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	}
	c.JSON(http.StatusOK, resp)
}
