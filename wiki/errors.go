package wiki

import "errors"

// Sentinel errors for wiki operations
var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageExists       = errors.New("a page with that title or path already exists")
	ErrEmptyTitle       = errors.New("page title cannot be empty")
	ErrBadPath          = errors.New("page path must only contain letters, numbers, -, _, or /")
	ErrTemplateNotFound = errors.New("template page not found")
	ErrForbidden        = errors.New("you do not have permission to perform this action")
	ErrNoFiles          = errors.New("page has no attached files")
)
