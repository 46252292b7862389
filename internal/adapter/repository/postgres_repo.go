package repository

import (
	"context"
	"errors"
	"fmt"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresRepo 实现了 port.Repository 接口
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "连接数据库失败", err)
	}

	// 2. 自动迁移：candidates 和 job_details 两张表
	if err := db.AutoMigrate(&domain.Candidate{}, &domain.JobPosting{}); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "数据库迁移失败", err)
	}

	return &PostgresRepo{db: db}, nil
}

// NewPostgresRepoWithDB 复用已有的连接 (测试用 sqlmock)
func NewPostgresRepoWithDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// SaveCandidate 保存或更新候选人
func (r *PostgresRepo) SaveCandidate(ctx context.Context, candidate *domain.Candidate) error {
	if candidate == nil || candidate.ID == "" {
		return common.NewError(common.ErrCodeInvalidInput, "候选人 ID 为空")
	}
	if candidate.Status == "" {
		candidate.Status = domain.CandidateStatusPending
	}
	// Save 会自动处理 Insert 或 Update (Upsert)
	if err := r.db.WithContext(ctx).Save(candidate).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, "保存候选人失败", err)
	}
	return nil
}

// GetCandidate 按 ID 查询
func (r *PostgresRepo) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	var c domain.Candidate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewError(common.ErrCodeNotFound, fmt.Sprintf("候选人 %s 不存在", id))
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询候选人失败", err)
	}
	return &c, nil
}

// ListCandidates 最新投递在前，jobID <= 0 表示不过滤岗位
func (r *PostgresRepo) ListCandidates(ctx context.Context, jobID int) ([]*domain.Candidate, error) {
	var candidates []*domain.Candidate
	q := r.db.WithContext(ctx)
	if jobID > 0 {
		q = q.Where("job_id = ?", jobID)
	}
	if err := q.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询候选人列表失败", err)
	}
	return candidates, nil
}

// UpdateStatus 更新 HR 处理状态
func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Candidate{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "更新候选人状态失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NewError(common.ErrCodeNotFound, fmt.Sprintf("候选人 %s 不存在", id))
	}
	return nil
}

// MarkAsNotified 标记候选人已推送
func (r *PostgresRepo) MarkAsNotified(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.Candidate{}).Where("id = ?", id).Update("already_notified", true)
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "标记推送状态失败", result.Error)
	}
	return nil
}

// DeleteCandidate 删除候选人记录 (拒绝时调用)
func (r *PostgresRepo) DeleteCandidate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Candidate{})
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "删除候选人失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NewError(common.ErrCodeNotFound, fmt.Sprintf("候选人 %s 不存在", id))
	}
	return nil
}

// GetJob 按岗位 ID 查询
func (r *PostgresRepo) GetJob(ctx context.Context, jobID int) (*domain.JobPosting, error) {
	var job domain.JobPosting
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewError(common.ErrCodeNotFound, fmt.Sprintf("岗位 %d 不存在", jobID))
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询岗位失败", err)
	}
	return &job, nil
}

// ListJobs 全部岗位，按 ID 排序
func (r *PostgresRepo) ListJobs(ctx context.Context) ([]*domain.JobPosting, error) {
	var jobs []*domain.JobPosting
	if err := r.db.WithContext(ctx).Order("job_id").Find(&jobs).Error; err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询岗位列表失败", err)
	}
	return jobs, nil
}
