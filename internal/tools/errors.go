package tools

import "fmt"

// ArgumentError reports missing or malformed tool arguments.
type ArgumentError struct {
	Tool string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Msg)
}

// ValidationError reports a statement rejected before execution.
type ValidationError struct {
	Tool string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Msg)
}

// UnknownToolError reports a call to a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}
