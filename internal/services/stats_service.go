package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/stats"
)

// StatsService computes dashboard figures from the current collections.
type StatsService interface {
	Overview(ctx context.Context) (*stats.SystemStats, error)
}

type statsService struct {
	projects repository.ProjectRepository
	features repository.FeatureRepository
	cases    repository.TestCaseRepository
}

func NewStatsService(projects repository.ProjectRepository, features repository.FeatureRepository, cases repository.TestCaseRepository) StatsService {
	return &statsService{projects: projects, features: features, cases: cases}
}

// Overview loads the three collections concurrently and aggregates them.
func (s *statsService) Overview(ctx context.Context) (*stats.SystemStats, error) {
	var (
		ps  []models.Project
		fs  []models.Feature
		tcs []models.TestCase
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { ps, err = s.projects.List(gctx); return })
	g.Go(func() (err error) { fs, err = s.features.List(gctx); return })
	g.Go(func() (err error) { tcs, err = s.cases.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o := stats.Overview(ps, fs, tcs)
	return &o, nil
}
