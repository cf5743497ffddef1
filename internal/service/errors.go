package service

import "errors"

var (
	ErrExternalService  = errors.New("external service failure")
	ErrFeedbackDelivery = errors.New("feedback delivery failed")
	ErrPersistence      = errors.New("persistence failure")
	ErrNotFound         = errors.New("not found")
)
