//go:build crawldebug

package crawler

// preconditionFailed aborts on a caller bug in crawldebug builds
func preconditionFailed(msg string) {
	panic("crawl state precondition violated: " + msg)
}
