package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizcraft/internal/app"
	"github.com/abhisek/quizcraft/internal/config"
	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/explain"
	"github.com/abhisek/quizcraft/internal/llm"
	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/screens/drill"
	"github.com/abhisek/quizcraft/internal/store"
)

var drillCmd = &cobra.Command{
	Use:   "drill <deck>",
	Short: "Drill a deck of cards",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrill,
}

func init() {
	drillCmd.Flags().String("mode", "", "Feedback mode: instant or review")
	drillCmd.Flags().Int("lives", 0, "Lives per run (0 = practice mode)")
	drillCmd.Flags().String("format", "", "Answer format: written or choice")
	drillCmd.Flags().Int("distractors", 0, "Distractors per multiple-choice question")
	drillCmd.Flags().Uint64("seed", 0, "Seed for card order and option synthesis")
}

func runDrill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := deck.Load(args[0])
	if err != nil {
		return fmt.Errorf("load deck: %w", err)
	}
	qcfg, err := quizConfig(cmd, cfg)
	if err != nil {
		return err
	}

	st, err := openStoreWith(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	repo := st.EventRepo()

	opts := []quiz.Option{quiz.WithLogger(logger)}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts = append(opts, quiz.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}

	if cfg.ExplainEnabled() {
		explainer, cleanup, err := newExplainer(ctx, cfg, repo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Explanations will be unavailable.")
		} else {
			defer cleanup()
			opts = append(opts, quiz.WithExplainer(explainer))
		}
	}

	title := d.Title
	if title == "" {
		title = args[0]
	}
	sess := quiz.New(d.Cards, qcfg, opts...)
	defer sess.Close()

	logger.Info("drill starting", "deck", title, "cards", len(d.Cards),
		"feedback", qcfg.Feedback, "lives", qcfg.Lives, "format", qcfg.Format)
	return app.Run(ctx, drill.New(sess, title, repo, logger))
}

// quizConfig merges the config file's quiz section with command flags.
func quizConfig(cmd *cobra.Command, cfg config.Config) (quiz.Config, error) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("mode"); v != "" {
		cfg.Quiz.Feedback = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.Quiz.Format = v
	}
	if flags.Changed("lives") {
		cfg.Quiz.Lives, _ = flags.GetInt("lives")
	}
	if flags.Changed("distractors") {
		cfg.Quiz.Distractors, _ = flags.GetInt("distractors")
	}
	qcfg, err := cfg.QuizConfig()
	if err != nil {
		return qcfg, fmt.Errorf("quiz config: %w", err)
	}
	return qcfg, nil
}

// newExplainer builds the explanation service over the configured LLM
// provider, with a Redis cache when redis.addr is set. The returned
// cleanup releases the Redis client.
func newExplainer(ctx context.Context, cfg config.Config, repo store.EventRepo) (*explain.Service, func(), error) {
	provider, llmCfg, err := llm.NewProviderFromEnv(ctx, repo, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("llm provider ready", "provider", llmCfg.Provider)

	svcOpts := []explain.Option{
		explain.WithTimeout(cfg.ExplainTimeout()),
		explain.WithLogger(logger),
	}
	if cfg.Explain.MaxTokens > 0 {
		svcOpts = append(svcOpts, explain.WithMaxTokens(cfg.Explain.MaxTokens))
	}
	if cfg.Explain.Temperature > 0 {
		svcOpts = append(svcOpts, explain.WithTemperature(cfg.Explain.Temperature))
	}

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, explanations will not be cached", "addr", cfg.Redis.Addr, "error", err)
			_ = client.Close()
		} else {
			svcOpts = append(svcOpts, explain.WithCache(explain.NewRedisCache(client, cfg.RedisTTL())))
			cleanup = func() { _ = client.Close() }
		}
	}

	return explain.New(provider, svcOpts...), cleanup, nil
}
