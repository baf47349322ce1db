// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Errorf logs a merge-internal failure the way modules/trace.Errorf
// does (structured logrus, not fmt.Println), and also returns it as an
// error so callers can use it directly in a return statement.
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	logrus.WithField("component", "merge").Error(err)
	return err
}

// Debugf logs progress that's only interesting with debug logging
// enabled — per-path merge attempts, unpack decisions — without
// cluttering the "Trying simple merge."-style user-facing messages
// strategies print to stderr directly.
func Debugf(format string, args ...any) {
	logrus.WithField("component", "merge").Debugf(format, args...)
}
