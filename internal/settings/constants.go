package settings

// DB setting keys and payload fields.
const (
	// DefaultDataLoadedKey is the setting key marking the default seed as complete.
	DefaultDataLoadedKey = "default_loaded"
	// LoadedField is the payload field carrying the seed flag.
	LoadedField = "value"
)
