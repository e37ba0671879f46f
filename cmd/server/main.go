package main

import (
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/vireopay/agentdesk/internal/agents"
	"github.com/vireopay/agentdesk/internal/config"
	"github.com/vireopay/agentdesk/internal/intent"
	"github.com/vireopay/agentdesk/internal/llm"
	"github.com/vireopay/agentdesk/internal/retrieval"
	"github.com/vireopay/agentdesk/internal/router"
	"github.com/vireopay/agentdesk/internal/server"
	"github.com/vireopay/agentdesk/internal/ticketsink"
	"github.com/vireopay/agentdesk/internal/userstore"
)

func main() {
	// Local development convenience; real deployments set the environment.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	llmProvider, err := llm.NewOpenAI(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to create LLM provider: %v", err)
	}

	index, err := retrieval.NewElasticIndex(cfg.Search)
	if err != nil {
		log.Fatalf("failed to create search index client: %v", err)
	}

	var cache *retrieval.Cache
	if cfg.Cache.Enabled {
		cache = retrieval.NewCache(cfg.Cache)
	}
	engine := retrieval.NewEngine(llmProvider, index, cache)

	store, err := userstore.NewClient(cfg.UserStore)
	if err != nil {
		log.Fatalf("failed to create user store client: %v", err)
	}
	sink := ticketsink.New(cfg.UserStore.TicketWebhookURL, cfg.UserStore.TicketWebhookToken)

	classifier := intent.NewClassifier(llmProvider, cfg.Agent.OffTopicThreshold)
	knowledge := agents.NewKnowledge(engine, llmProvider, cfg.Agent.TopK, cfg.Agent.MinGroundingScore)
	support := agents.NewSupport(store, llmProvider, sink)
	personality := agents.NewPersonality(cfg.Agent.Personality)

	rtr := router.New(classifier, knowledge, support, personality, &cfg.Agent, cfg.OpenAI.Provider)

	srv := server.New(cfg.Server, rtr)
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
