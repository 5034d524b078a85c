// SPDX-License-Identifier: Apache-2.0

package service

import "errors"

var (
	ErrNoCollection      = errors.New("no collection name was provided")
	ErrNoRecordID        = errors.New("no record id was provided")
	ErrNoRevision        = errors.New("no revision was provided")
	ErrNoRecordsProvided = errors.New("no records were provided")
	ErrInvalidLimit      = errors.New("limit must be positive")
	ErrBatchTooLarge     = errors.New("too many records in one batch")
)
