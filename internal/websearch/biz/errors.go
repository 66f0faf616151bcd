package biz

import "errors"

var (
	// ErrPatternNotFound saved pattern does not exist
	ErrPatternNotFound = errors.New("search pattern not found")

	// ErrPatternNameRequired saved pattern needs a name
	ErrPatternNameRequired = errors.New("search pattern name is required")

	// ErrProjectIDRequired saved pattern needs a project
	ErrProjectIDRequired = errors.New("project id is required")
)
