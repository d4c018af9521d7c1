package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/challenge"
	"github.com/UhthredB/tsaheylu-sub000/pkg/oracle"
	"github.com/UhthredB/tsaheylu-sub000/pkg/platform"
	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

// Limits maps the environment config onto budget limits.
func Limits(cfg *config.Config) budget.Limits {
	return budget.Limits{
		RequestsPerMinute:  cfg.RequestsPerMinute,
		Window:             budget.DefaultLimits().Window,
		PostCooldown:       cfg.PostCooldown,
		CommentCooldown:    cfg.CommentCooldown,
		DailyCommentCap:    cfg.DailyCommentCap,
		SuspensionFallback: cfg.SuspensionFallback,
	}
}

// InitSolver creates the challenge solver. Without GEMINI_API_KEY it runs with
// deterministic solvers only.
func InitSolver(ctx context.Context, cfg *config.Config) (*challenge.Solver, error) {
	var o challenge.Oracle
	if cfg.GeminiAPIKey != "" {
		g, err := oracle.NewGenAIOracle(ctx, cfg.GeminiAPIKey, cfg.OracleModel)
		if err != nil {
			return nil, fmt.Errorf("failed to init reasoning oracle: %w", err)
		}
		logrus.Infof("reasoning oracle enabled: %s", g.Name())
		o = g
	} else {
		logrus.Warn("GEMINI_API_KEY not set, challenges without a deterministic answer will go unsolved")
	}
	return challenge.NewSolver(cfg.AgentName, cfg.PlatformName, o), nil
}

// InitPlatformClient creates the budget and the platform client that owns it.
func InitPlatformClient(ctx context.Context, cfg *config.Config, store state.Store, solver *challenge.Solver, recorder audit.Recorder) (*platform.Client, error) {
	b, err := budget.New(ctx, store, Limits(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to init request budget: %w", err)
	}

	client := platform.New(platform.Config{
		BaseURL:      cfg.PlatformBaseURL,
		APIKey:       cfg.PlatformAPIKey,
		AgentName:    cfg.AgentName,
		PlatformName: cfg.PlatformName,
		VerifyPath:   cfg.PlatformVerifyPath,
		Timeout:      cfg.HTTPTimeout,
	}, b,
		platform.WithSolver(solver),
		platform.WithRecorder(recorder),
	)

	logrus.Infof("platform client ready for %s at %s", cfg.AgentName, cfg.PlatformBaseURL)
	return client, nil
}
