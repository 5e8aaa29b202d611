package entity

import (
	"imagestudio/internal/entity/common"
)

type Meta = common.Meta
