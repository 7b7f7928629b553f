// Command agentcore drives one Adaptive Loop run from the command line:
// it wires the LLM Gateway, the tool registry and invoker, the
// Specialized Agents, the Verification Pipeline, the CRIT Judge, and the
// Orchestrator, then persists the resulting session summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"goa.design/clue/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/cancel"
	"codeforge.dev/agentcore/crit"
	"codeforge.dev/agentcore/internal/config"
	"codeforge.dev/agentcore/internal/telemetry"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/llmgateway/anthropic"
	"codeforge.dev/agentcore/llmgateway/middleware"
	"codeforge.dev/agentcore/llmgateway/openai"
	"codeforge.dev/agentcore/orchestrator"
	"codeforge.dev/agentcore/policy"
	"codeforge.dev/agentcore/resilient"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/sessionstore"
	"codeforge.dev/agentcore/sessionstore/fsstore"
	"codeforge.dev/agentcore/sessionstore/mongostore"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
	"codeforge.dev/agentcore/toolreg"
	"codeforge.dev/agentcore/verify"
)

func main() {
	var (
		requestF   = flag.String("request", "", "natural-language request describing the goal for this run")
		workspaceF = flag.String("workspace", ".", "path to the repository the run operates on")
		configF    = flag.String("config", "", "path to a YAML config file overriding defaults")
		sessionF   = flag.String("session", "", "session ID; a timestamp-derived one is generated if empty")
		providerF  = flag.String("provider", "anthropic", "LLM provider: anthropic or openai")
		storeF     = flag.String("store", "fs", "session store backend: fs or mongo")
		storeDirF  = flag.String("store-dir", ".agentcore/sessions", "directory for the fs session store")
		mongoURIF  = flag.String("mongo-uri", "", "MongoDB connection URI (required when -store=mongo)")
		mongoDBF   = flag.String("mongo-db", "agentcore", "MongoDB database name")
		debugF     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *debugF {
		ctx = log.Context(ctx, log.WithDebug())
	}
	logger := telemetry.NewClueLogger()

	if *requestF == "" {
		logger.Error(ctx, "missing required -request flag")
		os.Exit(2)
	}

	cfg, err := config.Load(*configF)
	if err != nil {
		logger.Error(ctx, "loading config", "error", err)
		os.Exit(1)
	}

	ctrl := cancel.New(ctx).WithOSSignals()
	defer ctrl.Stop()

	sessionID := *sessionF
	if sessionID == "" {
		sessionID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	store, err := buildStore(ctx, *storeF, *storeDirF, *mongoURIF, *mongoDBF)
	if err != nil {
		logger.Error(ctx, "building session store", "error", err)
		os.Exit(1)
	}

	gw, err := buildGateway(*providerF, cfg)
	if err != nil {
		logger.Error(ctx, "building LLM gateway", "error", err)
		os.Exit(1)
	}

	reg := toolreg.New()
	for _, spec := range toolinvoke.BuiltinSpecs() {
		if err := reg.Register(spec); err != nil {
			logger.Error(ctx, "registering builtin tool", "tool", spec.Name, "error", err)
			os.Exit(1)
		}
	}
	inv := toolinvoke.New(*workspaceF, reg)
	inv.RegisterBuiltinHandlers()

	runner := &agents.Runner{Gateway: gw, ToolReg: reg, Invoker: inv, Executor: resilient.New(resilient.NewCache(10 * time.Minute))}
	agentReg := buildAgentRegistry(runner)

	vp := verify.New(inv, agents.NewTestExecutorAgent(runner))
	pol := policy.New(policy.Limits{
		MaxConsecutiveReads: cfg.Limits.MaxConsecutiveReads,
		MaxFileReadCount:    cfg.Limits.MaxFileReadCount,
	})
	judge := crit.New(gw, cfg.CRITThresholds())

	loop := orchestrator.New(gw, agentReg, pol, vp, judge, inv, orchestrator.Limits{
		MaxSteps:                      cfg.Limits.MaxSteps,
		MaxFailureSignatureRepeats:    cfg.Limits.MaxFailureSignatureRepeats,
		MaxAdaptivePromptImprovements: cfg.Limits.MaxAdaptivePromptImprovements,
	})

	rc := runctx.New(runctx.Identity{RunID: sessionID, SessionID: sessionID}, *workspaceF)

	start := time.Now()
	summary, runErr := loop.Run(ctrl.Context(), rc, *requestF)
	end := time.Now()

	persisted := sessionstore.Summary{
		SessionID:       sessionID,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end.Sub(start).Seconds(),
		TasksCompleted:  summary.TasksCompleted,
		TasksFailed:     summary.TasksFailed,
		Success:         runErr == nil && summary.GoalAchieved,
		TokensEstimated: sessionstore.EstimateTokens(*requestF),
	}
	if runErr != nil {
		persisted.ErrorMessages = append(persisted.ErrorMessages, runErr.Error())
	}
	if err := store.Save(context.Background(), persisted); err != nil {
		logger.Error(ctx, "saving session summary", "error", err)
	}

	if runErr != nil {
		logger.Error(ctx, "run failed", "session", sessionID, "error", runErr)
		os.Exit(1)
	}
	logger.Info(ctx, "run complete", "session", sessionID, "goal_achieved", summary.GoalAchieved, "steps", summary.Steps)
	if !summary.GoalAchieved {
		os.Exit(1)
	}
}

// buildGateway selects the Anthropic or OpenAI adapter from its API key
// environment variable and wraps it in the adaptive rate limiter.
func buildGateway(provider string, cfg config.Config) (llmgateway.Gateway, error) {
	var gw llmgateway.Gateway
	switch provider {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		client, err := anthropic.NewFromAPIKey(apiKey, anthropic.Options{
			Model: cfg.Model.Name, Temperature: cfg.Model.Temperature,
		})
		if err != nil {
			return nil, err
		}
		gw = client
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		client, err := openai.NewFromAPIKey(apiKey, openai.Options{
			Model: cfg.Model.Name, Temperature: cfg.Model.Temperature,
		})
		if err != nil {
			return nil, err
		}
		gw = client
	default:
		return nil, fmt.Errorf("unknown -provider %q (want anthropic or openai)", provider)
	}
	limiter := middleware.NewAdaptiveRateLimiter(60000, 60000)
	return limiter.Wrap(gw), nil
}

// buildAgentRegistry maps every action_type onto its Specialized Agent,
// from the closed set of nine role-bound executors.
func buildAgentRegistry(r *agents.Runner) *agents.Registry {
	reg := agents.NewRegistry()

	research := agents.NewResearchAgent(r)
	reg.Register(task.ActionRead, research)
	reg.Register(task.ActionResearch, research)
	reg.Register(task.ActionInvestigate, research)

	analysis := agents.NewAnalysisAgent(r)
	reg.Register(task.ActionAnalyze, analysis)
	reg.Register(task.ActionReview, analysis)

	writer := agents.NewWriterAgent(r)
	reg.Register(task.ActionEdit, writer)
	reg.Register(task.ActionAdd, writer)
	reg.Register(task.ActionCreate, writer)
	reg.Register(task.ActionDelete, writer)

	reg.Register(task.ActionRefactor, agents.NewRefactorAgent(r))
	reg.Register(task.ActionTest, agents.NewTestExecutorAgent(r))

	debug := agents.NewDebugAgent(r)
	reg.Register(task.ActionDebug, debug)
	reg.Register(task.ActionExecute, debug)

	reg.Register(task.ActionFix, agents.NewFixAgent(r))
	reg.Register(task.ActionDocument, agents.NewDocumentAgent(r))
	reg.Register(task.ActionTool, agents.NewToolCreateAgent(r))

	return reg
}

func buildStore(ctx context.Context, kind, dir, mongoURI, mongoDB string) (sessionstore.Store, error) {
	switch kind {
	case "fs":
		return fsstore.New(dir)
	case "mongo":
		if mongoURI == "" {
			return nil, fmt.Errorf("-mongo-uri is required when -store=mongo")
		}
		client, err := mongoConnect(ctx, mongoURI)
		if err != nil {
			return nil, err
		}
		return mongostore.New(ctx, mongostore.Options{Client: client, Database: mongoDB})
	default:
		return nil, fmt.Errorf("unknown -store %q (want fs or mongo)", kind)
	}
}

func mongoConnect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", uri, err)
	}
	pingCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging %s: %w", uri, err)
	}
	return client, nil
}
