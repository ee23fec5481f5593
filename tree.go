package reactive

import (
	"fmt"
	"strings"
)

// TreeString renders the scope hierarchy rooted at s for debugging. Unnamed
// scopes are labelled by address; disposed scopes never appear because a
// disposed scope is detached from its parent.
func TreeString(s *Scope) string {
	var sb strings.Builder
	writeScope(&sb, s, 0)
	return sb.String()
}

func writeScope(sb *strings.Builder, s *Scope, depth int) {
	s.mu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	cleanups := len(s.cleanups)
	s.mu.Unlock()

	if depth == 0 {
		sb.WriteString(fmt.Sprintf("%s (%d hooks)\n", scopeLabel(s), cleanups))
	}
	for i, child := range children {
		branch := "├─>"
		if i == len(children)-1 {
			branch = "└─>"
		}
		child.mu.Lock()
		childHooks := len(child.cleanups)
		child.mu.Unlock()
		sb.WriteString(fmt.Sprintf("%s%s %s (%d hooks)\n",
			strings.Repeat("    ", depth+1), branch, scopeLabel(child), childHooks))
		writeScope(sb, child, depth+1)
	}
}

func scopeLabel(s *Scope) string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("scope_%p", s)
}
