//go:build !crawldebug

package crawler

import "github.com/sirupsen/logrus"

// preconditionFailed logs a caller bug; the offending operation becomes a no-op
func preconditionFailed(msg string) {
	logrus.Errorf("crawl state precondition violated: %s", msg)
}
