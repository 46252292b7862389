package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hr-analytics/internal/common"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSStore 把简历 PDF 存到 Google Cloud Storage，实现了 port.BlobStore 接口
type GCSStore struct {
	svc        *gcs.Service
	bucket     string
	publicBase string
	maxRetries int
	logger     *zap.Logger
}

// GCSConfig GCS 配置
type GCSConfig struct {
	Bucket string
	// 为空时返回 https://storage.googleapis.com/<bucket>/<name>
	PublicBaseURL string
	MaxRetries    int
}

// NewGCSStore 创建 GCS 客户端，认证方式通过 opts 传入 (凭证文件 / 默认凭证 / 测试用 endpoint)
func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *zap.Logger, opts ...option.ClientOption) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "GCS bucket 为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "创建 GCS 客户端失败", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSStore{
		svc:        svc,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		maxRetries: cfg.MaxRetries,
		logger:     logger.With(zap.String("component", "gcs"), zap.String("bucket", cfg.Bucket)),
	}, nil
}

// Put 上传对象，返回公开访问地址
// 上传体只能读一次，所以这里不做重试
func (s *GCSStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	obj := &gcs.Object{
		Name:        name,
		ContentType: contentType,
	}

	stored, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", common.WrapError(common.ErrCodeStorage, "上传简历失败", err)
	}

	s.logger.Debug("📦 简历已上传", zap.String("object", stored.Name), zap.Uint64("size", stored.Size))
	return s.publicBase + "/" + escapeObjectName(stored.Name), nil
}

// Delete 删除对象，对象不存在视为成功
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	err := common.Do(ctx, func() error {
		return s.svc.Objects.Delete(s.bucket, name).Context(ctx).Do()
	},
		common.WithMaxRetries(s.maxRetries),
		common.WithInitialDelay(500*time.Millisecond),
		common.WithRetryIf(isRetryable),
	)
	if err != nil && !isNotFound(err) {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("删除对象 %s 失败", name), err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// escapeObjectName 按段转义，保留对象名里的 "/"
func escapeObjectName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
