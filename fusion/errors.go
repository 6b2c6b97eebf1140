package fusion

import "errors"

var (
	ErrNoScans        = errors.New("scan dataset is empty")
	ErrInvalidTick    = errors.New("scan tick must be >= 1")
	ErrTicksPerBucket = errors.New("ticks per bucket must be positive")
	ErrFloorplan      = errors.New("floorplan extent must be positive")
)
