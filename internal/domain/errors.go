package domain

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrSettingNotFound  = errors.New("setting not found")
	ErrPermissionDenied = errors.New("permission denied")
)
