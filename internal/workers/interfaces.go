// Package workers provides the background jobs of the application: the
// periodic differential sync against the remote alert source, plus a small
// aggregate for starting several jobs together.
package workers

// Worker is a background job with a blocking or self-spawning Run method.
type Worker interface {
	Run()
}
