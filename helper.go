package sinklog

import (
	stderrs "errors"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
)

const maxChainDepth = 50

// walkChain calls match for err and each of its causes until match returns
// true. DetailedError.Cause is preferred over stdlib unwrapping.
func walkChain(err error, match func(error) bool) bool {
	for depth := 0; err != nil && depth < maxChainDepth; depth++ {
		if match(err) {
			return true
		}
		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			err = dErr.Cause()
			continue
		}
		err = stderrs.Unwrap(err)
	}
	return false
}

// buildErrorChain collects, outermost first, the message and operation of
// every link visited by walkChain. Plain errors carry an empty operation. A
// repeated plain message ends the walk.
func buildErrorChain(err error) (chain []string, ops []string, root string, rootOp string) {
	seen := map[string]bool{}

	walkChain(err, func(e error) bool {
		if dErr, ok := smerrors.AsDetailedError(e); ok && dErr != nil {
			chain = append(chain, dErr.Error())
			ops = append(ops, string(dErr.Op()))
			return false
		}
		msg := e.Error()
		if seen[msg] {
			return true
		}
		seen[msg] = true
		chain = append(chain, msg)
		ops = append(ops, emptyString)
		return false
	})

	if len(chain) > 0 {
		root = chain[len(chain)-1]
		rootOp = ops[len(ops)-1]
	}
	return
}

// joinChain returns a single string for the error chain separated by " -> ".
func joinChain(chain []string) string {
	if len(chain) == 0 {
		return emptyString
	}
	return strings.Join(chain, " -> ")
}

// withErrorChain attaches err and its history to a diagnostics event.
func withErrorChain(e *zerolog.Event, err error) *zerolog.Event {
	e = e.Err(err)
	if err == nil {
		return e
	}
	chain, ops, root, rootOp := buildErrorChain(err)
	if len(chain) == 0 {
		return e
	}
	e = e.Strs("error_chain", chain).
		Str("error_root", root).
		Str("error_history", joinChain(chain)).
		Strs("error_ops", ops)
	if rootOp != emptyString {
		e = e.Str("error_root_op", rootOp)
	}
	return e
}
