package workflow

import (
	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

var roleStages = map[models.Role]models.Stage{
	models.RoleSNP:          models.StageSNP,
	models.RoleAudit:        models.StageAudit,
	models.RoleFinanceAdmin: models.StageFinanceAdmin,
}

// StageForRole returns the stage a role is allowed to act on.
func StageForRole(role models.Role) (models.Stage, bool) {
	stage, ok := roleStages[role]
	return stage, ok
}

// Authorize checks that role may act on stage.
func Authorize(role models.Role, stage models.Stage) error {
	allowed, ok := StageForRole(role)
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot act on bills")
	}
	if allowed != stage {
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot act on the "+string(stage)+" stage")
	}
	return nil
}
