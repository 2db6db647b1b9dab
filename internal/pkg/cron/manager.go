package cron

import (
	"GameZone/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

// followCountSpec 每 5 分钟校准一次关注数
const followCountSpec = "0 */5 * * * *"

type Manager struct {
	engine         *cron.Cron
	followCountJob *job.FollowCountJob
}

func NewCronManager(followCountJob *job.FollowCountJob) *Manager {
	return &Manager{
		engine:         cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		followCountJob: followCountJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(followCountSpec, s.followCountJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
