package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addToolDef = mcp.NewTool("wish_add",
	mcp.WithDescription("Add a wish to the wish list. The title is required; surrounding whitespace is trimmed."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Wish title (max 200 characters)")),
	mcp.WithString("description", mcp.Description("Optional free-form description, markdown allowed (max 2000 characters)")),
)

var listToolDef = mcp.NewTool("wish_list",
	mcp.WithDescription("List all wishes in ascending id order."),
)

var getToolDef = mcp.NewTool("wish_get",
	mcp.WithDescription("Fetch a single wish by id."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Wish id")),
)

var updateToolDef = mcp.NewTool("wish_update",
	mcp.WithDescription("Update an existing wish. Omitted fields keep their stored value."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Wish id")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("description", mcp.Description("New description")),
)

var deleteToolDef = mcp.NewTool("wish_delete",
	mcp.WithDescription("Delete a wish by id. Deleting a missing wish is a no-op."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Wish id")),
)
