package jobs

import (
	"library-backend/internal/clock"
	"library-backend/internal/config"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
	"library-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all dependencies needed by jobs
type Services struct {
	Loan   service.LoanService
	User   service.UserService
	Email  service.EmailService
	Tokens repository.TokenRepository
	Clock  clock.Clock
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once, in dependency order (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.MarkOverdueLoans()
	jr.SendOverdueReminders()
	jr.PurgeRevokedTokens()
}
