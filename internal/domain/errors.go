package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidExport = errors.New("invalid export request")
	ErrUnknownWorker = errors.New("unknown worker")
	ErrUpstream      = errors.New("upstream failure")
	ErrWorkerBusy    = errors.New("worker already running")
)
