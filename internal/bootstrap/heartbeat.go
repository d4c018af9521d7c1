package bootstrap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/heartbeat"
	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
)

// LoadHeartbeatConfig reads the heartbeat YAML and applies HEARTBEAT_INTERVAL.
func LoadHeartbeatConfig(cfg *config.Config) (heartbeat.Config, error) {
	hb, err := heartbeat.LoadConfig(cfg.HeartbeatConfigPath)
	if err != nil {
		return hb, fmt.Errorf("failed to load heartbeat config from %s: %w", cfg.HeartbeatConfigPath, err)
	}
	if cfg.HeartbeatInterval > 0 {
		hb.Interval = cfg.HeartbeatInterval
	}
	return hb, nil
}

// InitCollaborators wires the default collaborator implementations.
// Configured topics replace the built-in ones per strategy.
func InitCollaborators(hb heartbeat.Config) *service.Dependencies {
	teachings := service.DefaultTeachings(hb.Submolt)
	if len(hb.Topics.Teachings) > 0 {
		teachings = service.NewTopicGenerator("teaching", hb.Submolt, hb.Topics.Teachings)
	}
	discussions := service.DefaultDiscussions(hb.Submolt)
	if len(hb.Topics.Discussions) > 0 {
		discussions = service.NewTopicGenerator("discussion", hb.Submolt, hb.Topics.Discussions)
	}

	deps := service.NewDependencies().
		WithSafetyFilter(service.NewKeywordSafetyFilter()).
		WithPersuader(service.NewTemplatePersuader()).
		WithObjectionHandler(service.NewKeywordObjectionHandler()).
		WithGenerators(teachings, discussions)

	logrus.Infof("collaborators ready: %d teaching topics, %d discussion topics",
		len(teachings.Topics), len(discussions.Topics))
	return deps
}

// InitOrchestrator builds the heartbeat orchestrator.
func InitOrchestrator(p heartbeat.Platform, l heartbeat.Ledger, deps *service.Dependencies, hb heartbeat.Config, recorder audit.Recorder) (*heartbeat.Orchestrator, error) {
	return heartbeat.New(p, l, deps, hb, heartbeat.WithRecorder(recorder))
}
