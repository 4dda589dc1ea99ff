package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStoreFailure    = errors.New("store failure")
	ErrUnknownCircle   = errors.New("unknown circle")
	ErrInvalidFilter   = errors.New("invalid feed filter")
	ErrNotFound        = errors.New("not found")
	ErrNotMember       = errors.New("not a member of this community")
)

var validate = validator.New()

// IsClientError 是否为调用方输入导致的错误
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrUnknownCircle) ||
		errors.Is(err, ErrInvalidFilter)
}
