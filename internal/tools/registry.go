// Package tools defines the two MCP tools exposed by the server and
// dispatches tool calls to the database.
package tools

// Tool names.
const (
	ReadQuery  = "read_query"
	ListTables = "list_tables"
)

// QueryArgument is the read_query argument holding the SQL text.
const QueryArgument = "query"

// Descriptor describes one tool as advertised to MCP clients.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
	ReadOnly    bool   `json:"-"`
}

// Schema is the JSON Schema of a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one argument in a Schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Registry returns the descriptors of every tool, read_query first. Each
// call returns fresh values.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:        ReadQuery,
			Description: "Execute SELECT queries on the MSSQL database",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					QueryArgument: {Type: "string", Description: "SQL query to execute"},
				},
				Required: []string{QueryArgument},
			},
			ReadOnly: true,
		},
		{
			Name:        ListTables,
			Description: "List database tables",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Property{},
			},
			ReadOnly: true,
		},
	}
}
