package config

// Application constants
const (
	AppName = "labmeas"

	// EnvPrefix namespaces every environment variable, e.g. LABMEAS_LOGGING_LEVEL
	EnvPrefix = "LABMEAS"

	DotEnvFile     = ".env"
	DefaultLogFile = "logs/labmeas.log"
)
