package model

import "errors"

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInternal          = errors.New("internal error")
	ErrCodeStoreNotReady = errors.New("access code store is not initialized")
)
