package contextkeys

type contextKey string

const (
	ClaimsKey contextKey = "Claims"
	LoggerKey contextKey = "Logger"
)

// Ключи echo.Context (c.Set / c.Get).
const (
	EchoLoggerKey = "logger"
	EchoClaimsKey = "claims"
)
