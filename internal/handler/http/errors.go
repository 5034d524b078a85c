// SPDX-License-Identifier: Apache-2.0

package http

import "errors"

// Sentinel errors used when parsing the "Authorization" HTTP header.
var (
	ErrEmptyAuthorizationHeader   = errors.New("empty `Authorization` header")
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")
	ErrEmptyToken                 = errors.New("empty token in `Authorization` header")
)
