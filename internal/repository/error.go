package repository

import "github.com/questx-lab/rolebot/pkg/errorx"

var (
	ErrRoleReactionNotFound   = errorx.New(errorx.NotFound, "Not found role reaction")
	ErrTrackedMessageNotFound = errorx.New(errorx.NotFound, "No reaction message found")
)
