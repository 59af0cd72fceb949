package jobs

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrResumeNotReady   = errors.New("resume has not been analyzed yet")
	ErrMatchInProgress  = errors.New("matching already in progress")
	ErrEmptyDescription = errors.New("job description is required")
)
