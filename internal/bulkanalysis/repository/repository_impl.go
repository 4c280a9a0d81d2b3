package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertProject(ctx context.Context, db *gorm.DB, project *domain.BulkAnalysisProject) error {
	return db.WithContext(ctx).Create(project).Error
}

func (r *repo) FindProjectByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BulkAnalysisProject, error) {
	var project domain.BulkAnalysisProject
	err := db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *repo) FindProjectByOrderAndClient(ctx context.Context, db *gorm.DB, orderID, clientID snowflake.ID) (*domain.BulkAnalysisProject, error) {
	var project domain.BulkAnalysisProject
	err := db.WithContext(ctx).
		Where("order_id = ? AND client_id = ?", orderID, clientID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *repo) ListProjectsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.BulkAnalysisProject, error) {
	var projects []*domain.BulkAnalysisProject
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) ListProjectsByClientWindow(ctx context.Context, db *gorm.DB, clientID snowflake.ID, from, to time.Time) ([]*domain.BulkAnalysisProject, error) {
	var projects []*domain.BulkAnalysisProject
	err := db.WithContext(ctx).
		Where("client_id = ? AND created_at >= ? AND created_at <= ?", clientID, from, to).
		Order("created_at asc, id asc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) ListProjectsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*domain.BulkAnalysisProject, error) {
	var projects []*domain.BulkAnalysisProject
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at desc, id desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) InsertDomains(ctx context.Context, db *gorm.DB, domains []*domain.BulkAnalysisDomain) error {
	if len(domains) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(domains).Error
}

func (r *repo) ListDomainsByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]*domain.BulkAnalysisDomain, error) {
	var rows []*domain.BulkAnalysisDomain
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListDomainsByProjects(ctx context.Context, db *gorm.DB, projectIDs []snowflake.ID) ([]*domain.BulkAnalysisDomain, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var rows []*domain.BulkAnalysisDomain
	err := db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) UpdateDomainQualification(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, suggestion map[string]any) error {
	updates := map[string]any{
		"qualification_status": status,
		"updated_at":           time.Now().UTC(),
	}
	if suggestion != nil {
		updates["suggestion"] = datatypes.JSONMap(suggestion)
	}
	return db.WithContext(ctx).
		Model(&domain.BulkAnalysisDomain{}).
		Where("id = ?", id).
		Updates(updates).Error
}
