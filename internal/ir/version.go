package ir

// Version constants for the engine and the journal format.
const (
	// EngineVersion is the fluxury engine version.
	EngineVersion = "0.1.0"

	// JournalVersion is the schema version of the broadcast journal.
	JournalVersion = "1"
)
