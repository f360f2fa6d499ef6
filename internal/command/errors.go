// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrQuit is returned by Execute for quit and exit. Callers stop reading
// commands when they see it.
var ErrQuit = errors.New("quit")

// UnknownCommandError reports an unrecognized keyword.
type UnknownCommandError struct {
	Keyword string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q, type 'help' for a list", e.Keyword)
}

// ArgumentParseError reports a malformed argument. Token is the offending
// input, empty when an argument is missing.
type ArgumentParseError struct {
	Command string
	Token   string
	Reason  string
}

func (e *ArgumentParseError) Error() string {
	msg := e.Command + ": "
	if e.Token != "" {
		msg += fmt.Sprintf("invalid argument %q", e.Token)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
	} else {
		msg += e.Reason
	}
	if u, ok := usage[e.Command]; ok {
		msg += " (usage: " + u + ")"
	}
	return msg
}

// BatchError summarizes a multi-index command in which some indices failed.
// The per-index errors have already been reported.
type BatchError struct {
	Command string
	Failed  []int
}

func (e *BatchError) Error() string {
	idx := make([]string, len(e.Failed))
	for i, n := range e.Failed {
		idx[i] = strconv.Itoa(n)
	}
	noun := "index"
	if len(e.Failed) > 1 {
		noun = "indices"
	}
	return fmt.Sprintf("%s failed for %s %s", e.Command, noun, strings.Join(idx, ", "))
}
