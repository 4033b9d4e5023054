// Package sanitize cleans user-supplied text before it is stored or
// rendered. Uses bluemonday to strip dangerous HTML (script tags, event
// handlers, javascript: URLs). Tracking-entry comments end up inside the
// holiday-table fragment markup, so they must never carry live HTML.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// commentPolicy is the singleton bluemonday policy for entry comments.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	commentPolicy *bluemonday.Policy
	policyOnce    sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// Comments are plain text: strip every element, keep the text content.
		commentPolicy = bluemonday.StrictPolicy()
	})
	return commentPolicy
}

// Comment strips all HTML from a tracking-entry comment, collapsing the
// result to trimmed plain text.
func Comment(input string) string {
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
