package model

// ================ Config ================
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	NLU struct {
		MaxTurns int `envconfig:"CONVERSATION_NLU_MAX_TURNS" default:"5"`
	}
}

type NLUModelConfig struct {
	Model       string  `envconfig:"NLU_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"NLU_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"NLU_TEMPERATURE" default:"0"`
	// MinConfidence is the score under which the top intent is reported as None.
	MinConfidence float64 `envconfig:"NLU_MIN_CONFIDENCE" default:"0.5"`
}

type ServerConfig struct {
	Addr            string `envconfig:"SERVER_ADDR" default:":3978"`
	ShutdownTimeout string `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type StorageConfig struct {
	Backend string `envconfig:"STORAGE" default:"redis"`
}
