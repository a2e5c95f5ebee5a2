package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/api/validators"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/stats"
	"github.com/testboard/engine/pkg/logger"
)

type ProjectService interface {
	CreateProject(ctx context.Context, input *ProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, query string) ([]models.Project, error)
	ReplaceProject(ctx context.Context, projectID uuid.UUID, input *ProjectInput) (*models.Project, error)
	// DeleteProject removes the project with its features and their test cases.
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
	ProjectSummary(ctx context.Context, projectID uuid.UUID) (*stats.ProjectStats, error)
}

// ProjectInput is the create/replace form for a project.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,min=3"`
	Description string `json:"description" validate:"required,min=10"`
	Requirement string `json:"requirement" validate:"omitempty,min=5"`
	Icon        string `json:"icon" validate:"required,icon"`
}

func (in *ProjectInput) apply(p *models.Project) {
	p.Name = in.Name
	p.Description = in.Description
	p.Requirement = in.Requirement
	p.Icon = in.Icon
}

type projectService struct {
	db       *gorm.DB
	projects repository.ProjectRepository
	features repository.FeatureRepository
	cases    repository.TestCaseRepository
	notify   Notifier
}

func NewProjectService(db *gorm.DB, projects repository.ProjectRepository, features repository.FeatureRepository, cases repository.TestCaseRepository, notify Notifier) ProjectService {
	if notify == nil {
		notify = NopNotifier
	}
	return &projectService{db: db, projects: projects, features: features, cases: cases, notify: notify}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) CreateProject(ctx context.Context, input *ProjectInput) (*models.Project, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var p models.Project
	input.apply(&p)
	if err := s.projects.Create(ctx, &p); err != nil {
		return nil, err
	}
	logger.L().Info("project created", zap.String("project_id", p.ID.String()), zap.String("name", p.Name))
	s.notify.Changed(ctx, realtime.Projects)
	return &p, nil
}

func (s *projectService) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := s.projects.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectService) ListProjects(ctx context.Context, query string) ([]models.Project, error) {
	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Projects(all, query), nil
}

func (s *projectService) ReplaceProject(ctx context.Context, projectID uuid.UUID, input *ProjectInput) (*models.Project, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	var p models.Project
	if err := s.projects.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	input.apply(&p)
	if err := s.projects.Update(ctx, &p); err != nil {
		return nil, err
	}
	logger.L().Info("project replaced", zap.String("project_id", projectID.String()))
	s.notify.Changed(ctx, realtime.Projects)
	return &p, nil
}

func (s *projectService) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	var removedCases int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		featureIDs, err := s.features.WithTx(tx).DeleteByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if removedCases, err = s.cases.WithTx(tx).DeleteByFeatures(ctx, featureIDs); err != nil {
			return err
		}
		return s.projects.WithTx(tx).Delete(ctx, projectID)
	})
	if err != nil {
		return err
	}
	logger.L().Info("project deleted",
		zap.String("project_id", projectID.String()),
		zap.Int64("test_cases_removed", removedCases),
	)
	s.notify.Changed(ctx, realtime.Projects, realtime.Features, realtime.TestCases)
	return nil
}

func (s *projectService) ProjectSummary(ctx context.Context, projectID uuid.UUID) (*stats.ProjectStats, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	features, err := s.features.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(features))
	for _, f := range features {
		ids = append(ids, f.ID)
	}
	tcs, err := s.cases.ListByFeatures(ctx, ids)
	if err != nil {
		return nil, err
	}
	summary := stats.ProjectSummary(*p, features, tcs)
	return &summary, nil
}
