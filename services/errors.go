package services

import "errors"

// Pipeline errors
var (
	ErrInvalidRange = errors.New("end date precedes start date")
	ErrEmptyInput   = errors.New("no trip records to process")
)
