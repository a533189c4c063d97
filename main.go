package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aeg-helpline/server/internal/agent/graph"
	"github.com/aeg-helpline/server/internal/agent/graph/nodes"
	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	"github.com/aeg-helpline/server/internal/agent/repo"
	"github.com/aeg-helpline/server/internal/api"
	"github.com/aeg-helpline/server/internal/core"
	logx "github.com/aeg-helpline/server/pkg/logger"
	pkgredis "github.com/aeg-helpline/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the help line,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis   pkgredis.Config
	Storage model.StorageConfig
	Server  model.ServerConfig

	// LLM provider; an empty key runs on keyword matching only.
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	NLU          model.NLUModelConfig
	Conversation model.ConversationConfig
}

var (
	envFile string
	appCfg  AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "aeg-helpline",
	Short: "AEG asbestos help line bot",
	Long: `Runs the AEG help line: the bot recognizes what the caller needs,
looks up their insurance account and books an asbestos inspection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(envFile)
		if err != nil {
			return err
		}
		appCfg = cfg
		logx.Init(logx.LoggerOpts{
			Environment: core.ParseEnvironment(cfg.Environment),
			Level:       cfg.LogLevel,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads path when it exists and binds the environment.
func loadConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment config: %w", err)
	}
	return cfg, nil
}

// app is the wired runtime shared by the serve and chat commands.
type app struct {
	runner *graph.Runner
	health api.HealthCheck
	close  func()
}

func buildApp(ctx context.Context, cfg AppConfig) (*app, error) {
	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSATION_TTL '%s': %w", cfg.Conversation.TTL, err)
	}

	a := &app{close: func() {}}
	var (
		conversations model.ConversationRepository
		states        model.DialogStateRepository
	)
	switch strings.ToLower(cfg.Storage.Backend) {
	case model.StorageMemory:
		conversations = repo.NewMemoryConversationRepository(ttl)
		states = repo.NewMemoryDialogStateRepository(ttl)
	case model.StorageRedis, "":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Msg("Connected to Redis successfully")
		conversations = repo.NewRedisConversationRepository(rdb, ttl)
		states = repo.NewRedisDialogStateRepository(rdb, ttl)
		a.health = redisHealth(rdb)
		a.close = func() { _ = rdb.Close() }
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage.Backend)
	}

	rec, err := buildRecognizer(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		Recognizer:       rec,
		Conversation:     cfg.Conversation,
		ConversationRepo: conversations,
		DialogStateRepo:  states,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	a.runner = runner
	return a, nil
}

// buildRecognizer prefers the Gemini classifier and falls back to keywords.
func buildRecognizer(ctx context.Context, cfg AppConfig) (recognizer.Recognizer, error) {
	keyword := recognizer.NewKeyword(cfg.NLU.MinConfidence)
	if cfg.APIKey == "" {
		logx.Warn().Msg("GEMINI_API_KEY is not set; using keyword recognition")
		return recognizer.NewFallback(nil, keyword), nil
	}

	cm, err := nodes.NewNLUChatModel(ctx, nodes.ChatModelConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		NLUConfig: &cfg.NLU,
	})
	if err != nil {
		return nil, err
	}
	llm, err := recognizer.NewLLM(ctx, cm, cfg.NLU.Model, cfg.NLU.MinConfidence)
	if err != nil {
		return nil, err
	}
	return recognizer.NewFallback(llm, keyword), nil
}

func redisHealth(rdb *goredis.Client) api.HealthCheck {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
