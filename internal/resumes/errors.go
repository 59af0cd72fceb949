package resumes

import "errors"

var (
	ErrNotFound      = errors.New("resume not found")
	ErrRunInProgress = errors.New("analysis already in progress")
)
