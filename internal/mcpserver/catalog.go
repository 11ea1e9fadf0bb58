package mcpserver

import (
	"encoding/json"

	"plexus/internal/activation"

	mcp "github.com/mark3labs/mcp-go/mcp"
)

// toolName joins an activation's namespace and method the way the MCP
// tool catalog exposes a Plexus call: "namespace.method".
func toolName(namespace, method string) string {
	return namespace + "." + method
}

// buildTools converts every registered activation's method schemas into
// mcp.Tool values, using the mark3labs/mcp-go data shapes for the wire
// representation (this server's own JSON-RPC dispatch and lifecycle
// state machine are hand-rolled; mcp-go supplies only the catalog
// types).
func buildTools(descriptors []activation.Descriptor) []mcp.Tool {
	var tools []mcp.Tool
	for _, d := range descriptors {
		for _, m := range d.Methods {
			schema := mcp.ToolInputSchema{Type: "object"}
			if len(m.Params) > 0 {
				var raw struct {
					Properties map[string]interface{} `json:"properties"`
					Required   []string                `json:"required"`
				}
				if err := json.Unmarshal(m.Params, &raw); err == nil {
					schema.Properties = raw.Properties
					schema.Required = raw.Required
				}
			}
			tools = append(tools, mcp.Tool{
				Name:        toolName(d.Namespace, m.Name),
				Description: m.Description,
				InputSchema: schema,
			})
		}
	}
	return tools
}

// textResult wraps plain text as a successful CallToolResult, the
// minimal content shape every MCP client understands.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}
