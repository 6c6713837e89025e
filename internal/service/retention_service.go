package service

import (
	"context"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// RetentionService 文件保留策略服务
// 按配置的 cron 表达式定期清理每个合同的历史生成文件,
// 每种格式各保留最近 N 个,只删除磁盘文件,版本记录不动
type RetentionService struct {
	contractRepo repository.ContractRepository
	store        *storage.Store
	cfg          config.RetentionConfig
	scheduler    *cron.Cron
}

// NewRetentionService 创建保留策略服务
func NewRetentionService(contractRepo repository.ContractRepository, store *storage.Store, cfg config.RetentionConfig) *RetentionService {
	return &RetentionService{
		contractRepo: contractRepo,
		store:        store,
		cfg:          cfg,
	}
}

// Start 启动定时清理
func (s *RetentionService) Start() error {
	if !s.cfg.Enabled {
		logrus.Info("retention cleanup is disabled")
		return nil
	}

	s.scheduler = cron.New()
	if err := s.scheduler.AddFunc(s.cfg.Schedule, func() {
		removed, err := s.RunOnce(context.Background())
		if err != nil {
			logrus.Errorf("retention cleanup failed: %v", err)
			return
		}
		logrus.Infof("retention cleanup removed %d artifact files", removed)
	}); err != nil {
		return err
	}

	s.scheduler.Start()
	logrus.Infof("retention cleanup scheduled: %s (keep %d per format)", s.cfg.Schedule, s.cfg.KeepCount)
	return nil
}

// Stop 停止定时清理
func (s *RetentionService) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce 对所有合同执行一轮清理,返回删除的文件总数
// 单个合同清理失败不中断整轮,只记录日志
func (s *RetentionService) RunOnce(ctx context.Context) (int, error) {
	const pageSize = 200

	total := 0
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		contracts, _, err := s.contractRepo.FindAll("", offset, pageSize)
		if err != nil {
			return total, err
		}
		if len(contracts) == 0 {
			break
		}

		for _, contract := range contracts {
			removed, err := s.store.CleanupArtifacts(contract.ContractNumber, s.cfg.KeepCount)
			if err != nil {
				logrus.Warnf("cleanup of contract %s failed: %v", contract.ContractNumber, err)
				continue
			}
			total += removed
		}

		if len(contracts) < pageSize {
			break
		}
	}

	return total, nil
}
