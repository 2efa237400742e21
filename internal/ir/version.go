package ir

// Version constants for the IR schema and tooling.
const (
	// IRVersion is the IR token schema version.
	IRVersion = "1"

	// ToolVersion is the msgir tool version.
	ToolVersion = "0.1.0"
)
