package plan

import "errors"

var (
	ErrPlan        = errors.New("plan error")
	ErrInvalidPlan = errors.New("invalid plan")
)
