package ir

// Version constants for the IR schema and tool.
const (
	// IRVersion is the IR wire format version.
	IRVersion = "1"

	// ToolVersion is the extract release version.
	ToolVersion = "0.1.0"
)
