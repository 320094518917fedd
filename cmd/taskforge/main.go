// Command taskforge runs the autonomous development-task orchestrator
// against a working repository: given a user request, it scopes the
// work into milestones and drives the plan/implement/QA loop until the
// scope is satisfied, abandoned, or exhausted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/config"
	"github.com/taskforge-dev/taskforge/emit"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/filetool"
	"github.com/taskforge-dev/taskforge/nodes"
	"github.com/taskforge-dev/taskforge/report"
	"github.com/taskforge-dev/taskforge/store"
	"github.com/taskforge-dev/taskforge/streams"
	"github.com/taskforge-dev/taskforge/subagent"
	"github.com/taskforge-dev/taskforge/tool"
	"github.com/taskforge-dev/taskforge/websearch"
	"github.com/taskforge-dev/taskforge/workflow"
)

type rootFlags struct {
	Verbose        bool
	MaxIterations  int
	ReviewInterval int
	RepoRoot       string
	ConfigPath     string
	MetricsAddr    string
	CheckpointDB   string
}

func main() {
	os.Exit(run())
}

func run() int {
	var flags rootFlags

	exitCode := 0
	cmd := &cobra.Command{
		Use:   "taskforge [request]",
		Short: "Drive an autonomous development task to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := execute(cmd.Context(), args[0], flags)
			exitCode = code
			return err
		},
	}
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "set the CLI logger to debug level (workflow events are logged at info level either way)")
	cmd.Flags().IntVar(&flags.MaxIterations, "max-iterations", 0, "cap on total planner rounds (0 = config default)")
	cmd.Flags().IntVar(&flags.ReviewInterval, "review-interval", 0, "tasks between periodic assessor reviews (0 = config default)")
	cmd.Flags().StringVar(&flags.RepoRoot, "repo-root", ".", "path to the working repository")
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "taskforge.yaml", "path to the role->model configuration file")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on (empty disables)")
	cmd.Flags().StringVar(&flags.CheckpointDB, "checkpoint-db", "", "path to a SQLite checkpoint database (empty disables persistence)")

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		if ctx.Err() != nil {
			return 130
		}
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
		return exitCode
	}
	return exitCode
}

func execute(ctx context.Context, userRequest string, flags rootFlags) (int, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if flags.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return 2, err
	}
	if flags.ReviewInterval > 0 {
		cfg.ReviewInterval = flags.ReviewInterval
	}
	if flags.MaxIterations > 0 {
		cfg.MaxIterations = flags.MaxIterations
	}

	registry, modelNames, err := buildRegistry(cfg)
	if err != nil {
		return 2, fmt.Errorf("wiring models: %w", err)
	}

	summarizer := agent.NewSummarizationMiddleware(registry.For(agent.RoleSummarizer), agent.BudgetImplementorSummarize, 10)
	cost := agent.NewCostTracker()
	budgets := map[agent.ModelRole]int{
		agent.RolePrimary:    agent.BudgetTaskPlanner,
		agent.RoleSummarizer: agent.BudgetImplementorSummarize,
		agent.RoleResearch:   agent.BudgetQA,
		agent.RoleSupervisor: agent.BudgetAssessor,
	}
	invoker := agent.NewInvoker(registry, summarizer, cost, budgets, modelNames)

	logEmitter := emit.NewLogEmitter(os.Stderr, false)
	dispatcher := streams.NewDispatcher(logEmitter)

	edit := &filetool.EditFile{RepoRoot: flags.RepoRoot}
	read := &filetool.ReadFile{RepoRoot: flags.RepoRoot}
	find := &filetool.FindFilesByName{RepoRoot: flags.RepoRoot}

	plannerTools := []tool.Tool{find, read}
	if cfg.WebSearch.Endpoint != "" {
		backend := websearch.NewBackend(cfg.WebSearch.Endpoint, cfg.WebSearch.APIKey)
		plannerTools = append(plannerTools, &subagent.WebSearch{Backend: backend})
	}

	opts := workflow.Options{Emitter: dispatcher}

	if flags.MetricsAddr != "" {
		promReg := prometheus.NewRegistry()
		opts.Metrics = workflow.NewMetrics(promReg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(flags.MetricsAddr, mux); err != nil {
				logger.Errorf("metrics server: %v", err)
			}
		}()
	}

	if flags.CheckpointDB != "" {
		sqliteStore, err := store.NewSQLiteStore(flags.CheckpointDB)
		if err != nil {
			return 2, fmt.Errorf("opening checkpoint database: %w", err)
		}
		defer sqliteStore.Close()
		opts.Store = sqliteStore
		opts.CheckpointHook = func(s workflow.State) {
			logger.Infof("checkpoint saved at %s (run %s, status %s)", flags.CheckpointDB, s.RunID, s.Status)
		}
	}

	eng := workflow.New(workflow.NodeScopeAgent, opts)
	eng.Add(workflow.NodeScopeAgent, &nodes.ScopeNode{Invoker: invoker})
	eng.Add(workflow.NodeTaskPlanner, &nodes.PlannerNode{Invoker: invoker, Tools: plannerTools})
	eng.Add(workflow.NodeImplementor, &nodes.ImplementorNode{Invoker: invoker, Edit: edit, Read: read, Find: find})
	eng.Add(workflow.NodeQA, &nodes.QANode{Invoker: invoker})
	eng.Add(workflow.NodeAssessor, &nodes.AssessorNode{Invoker: invoker})
	eng.Add(workflow.NodeMarkComplete, nodes.MarkCompleteNode{})
	eng.Add(workflow.NodeMarkFailed, nodes.MarkFailedNode{})
	eng.Add(workflow.NodeIncrementAttempt, nodes.IncrementAttemptNode{})

	initial := workflow.State{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now(),
		UserRequest:    userRequest,
		RepoRoot:       flags.RepoRoot,
		ReviewInterval: cfg.ReviewInterval,
		MaxAttempts:    3,
		MaxIterations:  cfg.MaxIterations,
		Status:         workflow.StatusRunning,
	}

	final, err := eng.Run(ctx, initial)
	if err != nil {
		var scopeErr *errs.ScopeError
		var cancelErr *errs.CancellationSignal
		switch {
		case errors.As(err, &cancelErr):
			return 130, err
		case errors.As(err, &scopeErr):
			return 2, err
		}
	}

	reportText := report.Reporter{}.Generate(final)
	fmt.Println(reportText)
	logger.Infof("total model cost: $%.4f", cost.Total())

	switch final.Status {
	case workflow.StatusComplete:
		return 0, nil
	case workflow.StatusFailed:
		return 1, fmt.Errorf("run failed: %s", final.Error)
	default:
		return 2, fmt.Errorf("run ended in unexpected status %q", final.Status)
	}
}
