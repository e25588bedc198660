// Package gitrepo wraps the git command line for the operations the release
// pipeline needs: staging, committing with an automation identity and pushing
// to the default branch. Push failures are classified into write-conflict and
// authorization errors so callers can report them distinctly.
package gitrepo
