package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
)

// Store 本地文件存储
// 管理两个目录: 原始模板文件(只读访问)和生成的合同文件
// 生成的文件一经写入不再修改,编辑与恢复都会产生新文件
type Store struct {
	artifactDir string
	sourceDir   string
}

// New 创建文件存储,目录不存在时自动创建
func New(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.ArtifactDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	if err := os.MkdirAll(cfg.SourceDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create source dir: %w", err)
	}

	return &Store{
		artifactDir: cfg.ArtifactDir,
		sourceDir:   cfg.SourceDir,
	}, nil
}

// ArtifactDir 返回生成文件目录
func (s *Store) ArtifactDir() string {
	return s.artifactDir
}

// ArtifactPath 返回生成文件的完整路径
func (s *Store) ArtifactPath(filename string) string {
	return filepath.Join(s.artifactDir, filename)
}

// SourcePath 返回原始模板文件的完整路径
func (s *Store) SourcePath(name string) string {
	return filepath.Join(s.sourceDir, filepath.Base(name))
}

// SourceExists 判断原始模板文件是否存在且可读
func (s *Store) SourceExists(name string) bool {
	if name == "" {
		return false
	}
	info, err := os.Stat(s.SourcePath(name))
	return err == nil && !info.IsDir()
}

// OpenSource 打开原始模板文件,返回文件句柄和大小
// 每次生成都重新读取磁盘文件,不做任何缓存
func (s *Store) OpenSource(name string) (*os.File, int64, error) {
	f, err := os.Open(s.SourcePath(name))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open source file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat source file: %w", err)
	}

	return f, info.Size(), nil
}

// SaveSource 保存上传的原始模板文件,返回存储用的文件名
func (s *Store) SaveSource(name string, r io.Reader) (string, error) {
	filename := filepath.Base(name)
	path := filepath.Join(s.sourceDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create source file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write source file: %w", err)
	}

	return filename, nil
}

// CleanupArtifacts 删除合同超出保留数量的旧文件
// 每种格式各保留最近 keep 个文件,按修改时间排序,只删文件不删记录
// 返回删除的文件数量
func (s *Store) CleanupArtifacts(contractNumber string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	removed := 0
	for _, ext := range []string{"docx", "pdf"} {
		pattern := filepath.Join(s.artifactDir, fmt.Sprintf("contrato_%s_*.%s", contractNumber, ext))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return removed, fmt.Errorf("failed to list artifacts: %w", err)
		}

		if len(matches) <= keep {
			continue
		}

		// 按修改时间从旧到新排序
		type fileInfo struct {
			path    string
			modTime int64
		}
		infos := make([]fileInfo, 0, len(matches))
		for _, m := range matches {
			st, err := os.Stat(m)
			if err != nil {
				continue
			}
			infos = append(infos, fileInfo{path: m, modTime: st.ModTime().UnixNano()})
		}
		sort.Slice(infos, func(i, j int) bool {
			return infos[i].modTime < infos[j].modTime
		})

		if len(infos) <= keep {
			continue
		}
		for _, fi := range infos[:len(infos)-keep] {
			if err := os.Remove(fi.path); err != nil {
				return removed, fmt.Errorf("failed to remove artifact: %w", err)
			}
			removed++
		}
	}

	return removed, nil
}
