package executor

import (
	"context"
	"fmt"

	"github.com/CodedAgent/codeagent/internal/config"
)

// RollbackManager decides whether an aborted run reverts its staged changes.
//
// Decision matrix:
// | Mode          | Aborted | Context rollback enabled | Dry run | Rollback? |
// |---------------|---------|--------------------------|---------|-----------|
// | manual        | any     | any                      | any     | NO        |
// | auto_on_abort | NO      | any                      | any     | NO        |
// | auto_on_abort | YES     | NO                       | any     | NO        |
// | auto_on_abort | YES     | YES                      | YES     | NO        |
// | auto_on_abort | YES     | YES                      | NO      | YES       |
type RollbackManager struct {
	Config     *config.RollbackConfig
	Rollbacker Rollbacker
	Logger     Logger
}

// NewRollbackManager creates a new RollbackManager.
// Returns nil if config or rollbacker is nil; a nil manager never rolls back.
func NewRollbackManager(cfg *config.RollbackConfig, rollbacker Rollbacker, logger Logger) *RollbackManager {
	if cfg == nil || rollbacker == nil {
		return nil
	}
	return &RollbackManager{
		Config:     cfg,
		Rollbacker: rollbacker,
		Logger:     logger,
	}
}

// ShouldRollback evaluates the decision matrix for a finished run.
func (m *RollbackManager) ShouldRollback(aborted bool, ectx *ExecutionContext) bool {
	if m == nil || m.Config == nil || ectx == nil {
		return false
	}

	switch m.Config.Mode {
	case config.RollbackModeAutoOnAbort:
		return aborted && ectx.RollbackEnabled() && !ectx.IsDryRun()
	default:
		return false
	}
}

// PerformRollback reverts the given changes through the Rollbacker.
func (m *RollbackManager) PerformRollback(ctx context.Context, changes []string) error {
	if m == nil || m.Rollbacker == nil {
		return fmt.Errorf("rollback manager not initialized")
	}
	if len(changes) == 0 {
		return nil
	}

	if m.Logger != nil {
		m.Logger.LogInfo(fmt.Sprintf("Rollback: reverting %d staged change(s)", len(changes)))
	}

	if err := m.Rollbacker.Rollback(ctx, changes); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	if m.Logger != nil {
		m.Logger.LogInfo("Rollback: staged changes reverted")
	}
	return nil
}

// Mode returns the current rollback mode.
func (m *RollbackManager) Mode() config.RollbackMode {
	if m == nil || m.Config == nil {
		return config.RollbackModeManual
	}
	return m.Config.Mode
}
