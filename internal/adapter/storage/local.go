package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hr-analytics/internal/common"
)

// LocalStore 本地磁盘存储，开发环境用
type LocalStore struct {
	dir        string
	publicBase string
}

// NewLocalStore 创建本地存储目录
// publicBase 为空时返回 file:// 地址
func NewLocalStore(dir, publicBase string) (*LocalStore, error) {
	if dir == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "存储目录为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "创建存储目录失败", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "解析存储目录失败", err)
	}
	return &LocalStore{dir: abs, publicBase: strings.TrimSuffix(publicBase, "/")}, nil
}

// Put 写入文件
func (s *LocalStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", common.WrapError(common.ErrCodeStorage, "创建目录失败", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", common.WrapError(common.ErrCodeStorage, "创建文件失败", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", common.WrapError(common.ErrCodeStorage, "写入文件失败", err)
	}

	if s.publicBase != "" {
		return s.publicBase + "/" + escapeObjectName(name), nil
	}
	return "file://" + path, nil
}

// Delete 删除文件，不存在视为成功
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return common.WrapError(common.ErrCodeStorage, "删除文件失败", err)
	}
	return nil
}

// path 防止 ../ 逃出存储目录
func (s *LocalStore) path(name string) (string, error) {
	clean := filepath.Clean(filepath.Join(s.dir, name))
	if !strings.HasPrefix(clean, s.dir+string(os.PathSeparator)) {
		return "", common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("非法的对象名: %s", name))
	}
	return clean, nil
}
