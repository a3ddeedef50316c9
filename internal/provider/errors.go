// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provider

import (
	"errors"
	"fmt"
)

// NotConnectedError means the user has no stored mail credentials. Surfaced
// with a distinct type so a UI can prompt reconnection; never retried.
type NotConnectedError struct {
	UserID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("mail account not connected for user %s", e.UserID)
}

// AuthExpiredError means the provider rejected the stored credentials.
// No silent recovery beyond the token refresh the OAuth client itself
// performs.
type AuthExpiredError struct {
	UserID string
	Err    error
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("mail credentials expired for user %s: %v", e.UserID, e.Err)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// TransientError is a network or rate-limit failure worth retrying on a
// later sweep cycle.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient provider failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsNotConnected reports whether err is a NotConnectedError.
func IsNotConnected(err error) bool {
	var nc *NotConnectedError
	return errors.As(err, &nc)
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
