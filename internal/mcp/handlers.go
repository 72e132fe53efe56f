package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/state"
	"github.com/hpungsan/wishlist/internal/wish"
)

// Handlers holds dependencies for MCP tool handlers.
// Every call runs against a fresh state.Holder closed when the call returns.
type Handlers struct {
	repo   state.Repository
	logger *slog.Logger
	opts   []state.Option
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(repo state.Repository, logger *slog.Logger, opts ...state.Option) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{repo: repo, logger: logger, opts: opts}
}

// Request types for each tool

// AddRequest represents the arguments for wish_add.
type AddRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// GetRequest represents the arguments for wish_get.
type GetRequest struct {
	ID int64 `json:"id"`
}

// UpdateRequest represents the arguments for wish_update.
type UpdateRequest struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DeleteRequest represents the arguments for wish_delete.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// ListResult is the payload of wish_list.
type ListResult struct {
	Items []wish.Wish `json:"items"`
}

// DeleteResult is the payload of wish_delete.
type DeleteResult struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// Handler implementations

// HandleAdd handles the wish_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	hold := state.New(h.repo, h.logger, h.opts...)
	defer hold.Close()

	if err := hold.Open(ctx, 0); err != nil {
		return errorResult(err), nil
	}
	hold.SetTitleDraft(input.Title)
	hold.SetDescriptionDraft(input.Description)

	out, err := hold.Submit(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleList handles the wish_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[struct{}](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	hold := state.New(h.repo, h.logger, h.opts...)
	defer hold.Close()

	select {
	case <-hold.Loaded():
	case <-ctx.Done():
		return errorResult(errors.NewInternal(ctx.Err())), nil
	}
	return successResult(ListResult{Items: hold.AllWishes()})
}

// HandleGet handles the wish_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be positive")), nil
	}

	hold := state.New(h.repo, h.logger, h.opts...)
	defer hold.Close()

	w, err := hold.Lookup(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(w)
}

// HandleUpdate handles the wish_update tool call. Fields left out keep the
// stored value, the same as editing only some inputs of the form.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be positive")), nil
	}

	hold := state.New(h.repo, h.logger, h.opts...)
	defer hold.Close()

	if err := hold.Open(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	if input.Title != nil {
		hold.SetTitleDraft(*input.Title)
	}
	if input.Description != nil {
		hold.SetDescriptionDraft(*input.Description)
	}

	out, err := hold.Submit(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleDelete handles the wish_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be positive")), nil
	}

	hold := state.New(h.repo, h.logger, h.opts...)
	defer hold.Close()

	select {
	case res := <-hold.DeleteWish(wish.Wish{ID: input.ID}):
		if res.Err != nil {
			return errorResult(res.Err), nil
		}
		return successResult(DeleteResult{ID: input.ID, Deleted: res.Changed})
	case <-ctx.Done():
		return errorResult(errors.NewInternal(ctx.Err())), nil
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error messages are not exposed; they may carry SQL or file paths.
func errorResult(err error) *mcp.CallToolResult {
	wErr := errors.As(err)

	errorObj := map[string]any{
		"code":    wErr.Code,
		"message": wErr.Message,
		"status":  wErr.Status,
	}
	if wErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if wErr.Details != nil {
		errorObj["details"] = wErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
