// Package repl classifies terminal output to decide whether the remote
// session is sitting at a plain shell prompt or inside an interactive
// sub-environment (a language REPL or a full-screen panel).
//
// This is a best-effort heuristic over prompt patterns, not a terminal
// state machine; the result is a mode hint for transcript framing.
package repl

import (
	"regexp"
	"strings"
)

// Tag identifies the detected interactive sub-environment kind. The empty
// tag means plain shell.
type Tag string

const (
	Shell         Tag = ""
	PythonLike    Tag = "python-like"
	NodeLike      Tag = "node-like"
	RubyLike      Tag = "ruby-like"
	ScalaLike     Tag = "scala-like"
	HaskellLike   Tag = "haskell-like"
	InteractiveUI Tag = "interactive-ui"
)

var (
	irbPromptRe     = regexp.MustCompile(`irb\([^)]*\):\d+[:>*]\d*[>*]?\s*$`)
	scalaPromptRe   = regexp.MustCompile(`scala>\s*$`)
	haskellPromptRe = regexp.MustCompile(`(ghci|Prelude[\w.]*)>\s*$`)

	// shellPromptRe matches a trailing shell prompt, optionally preceded by
	// a user@host:path form.
	shellPromptRe = regexp.MustCompile(`[\w.-]+@[\w.-]+:[^\r\n]*[$#%>]\s*$|[$#%>]\s*$`)

	// userHostPromptRe is the unambiguous prompt form that always means a
	// plain shell, whatever mode we think we are in.
	userHostPromptRe = regexp.MustCompile(`[\w.-]+@[\w.-]+:[^\r\n]*[$#%>]\s*$`)
)

// languageTags are the named-language REPL kinds. A bare trailing ">" never
// clears these, since it is indistinguishable from a node or continuation
// prompt.
var languageTags = map[Tag]bool{
	PythonLike:  true,
	NodeLike:    true,
	RubyLike:    true,
	ScalaLike:   true,
	HaskellLike: true,
}

// Next returns the REPL tag after observing one chunk of output text.
// Detection rules run in priority order; when nothing matches, the current
// tag is sticky unless the chunk ends at a plain shell prompt.
func Next(current Tag, text string) Tag {
	trailing := strings.TrimRight(text, " \t")

	switch {
	case strings.Contains(text, ">>> ") || strings.Contains(text, "... "):
		return PythonLike
	case nodePrompt(text):
		return NodeLike
	case irbPromptRe.MatchString(trailing):
		return RubyLike
	case scalaPromptRe.MatchString(trailing):
		return ScalaLike
	case haskellPromptRe.MatchString(trailing):
		return HaskellLike
	case boxPanel(text):
		return InteractiveUI
	}

	if shellPromptRe.MatchString(text) {
		if !languageTags[current] {
			return Shell
		}
		// A full user@host:path prompt still wins over a language tag: it
		// can only come from the shell after the REPL exited.
		if userHostPromptRe.MatchString(text) {
			return Shell
		}
		if bare := strings.TrimSpace(text); strings.HasSuffix(bare, "$") ||
			strings.HasSuffix(bare, "#") || strings.HasSuffix(bare, "%") {
			return Shell
		}
	}
	return current
}

// nodePrompt reports whether the text looks like a JS runtime REPL prompt:
// a bare arrow prompt co-occurring with a runtime name token.
func nodePrompt(text string) bool {
	if !strings.Contains(text, "> ") && !strings.HasSuffix(strings.TrimRight(text, " \t"), ">") {
		return false
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "node") || strings.Contains(lower, "deno") ||
		strings.Contains(lower, "v8")
}

// boxPanel detects a box-drawing interactive panel: both a top and a
// bottom border character present in the same chunk.
func boxPanel(text string) bool {
	top := strings.ContainsAny(text, "┌╭╔")
	bottom := strings.ContainsAny(text, "└╰╚")
	return top && bottom
}
