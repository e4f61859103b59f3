// Package chain implements sequential execution of an ordered list of
// binaries, threading each step's output through the result-extraction
// rule to produce the next step's input.
package chain

import (
	"context"
	"strings"

	"github.com/wasmforge/pluginhost/domain/entities"
	"github.com/wasmforge/pluginhost/executor"
	"github.com/wasmforge/pluginhost/trace"
)

// Executor runs an ordered list of binaries through a shared executor.Executor.
type Executor struct {
	inner  *executor.Executor
	tracer *trace.Tracer
}

// New wraps inner for chained execution.
func New(inner *executor.Executor, tracer *trace.Tracer) *Executor {
	return &Executor{inner: inner, tracer: tracer}
}

// Run executes binaryIDs in order. Config is effectively cloned per step:
// each call to Execute gets a fresh store, fresh env JSON, and fresh
// fuel, so no cross-step state leaks via the host. The chain stops and
// surfaces the error from the first failing step; partial results are
// never returned.
func (c *Executor) Run(ctx context.Context, binaryIDs []string, initialInput string, cfg entities.ExecutionConfig) ([]entities.ExecutionResult, error) {
	rec := c.tracer.Start("")
	results := make([]entities.ExecutionResult, 0, len(binaryIDs))
	current := initialInput

	for _, id := range binaryIDs {
		result, err := c.inner.Execute(ctx, id, current, cfg)
		if err != nil {
			rec.Complete(false, err)
			return nil, err
		}
		results = append(results, result)
		current = ExtractResult(result.Output)
	}

	rec.Event(entities.TraceChainComplete, "ok")
	rec.Complete(true, nil)
	return results, nil
}

const resultMarker = "Result = "

// ExtractResult implements the result-extraction rule:
//
//  1. Scan output's lines for the first line containing the literal
//     marker "Result = ".
//  2. If found: a subsequent non-empty line's trimmed content is the
//     extracted result; otherwise the text after the marker on the same
//     line (trimmed) is used. If both are empty, keep scanning for the
//     next marker occurrence.
//  3. If no marker is found anywhere, the extracted result is the last
//     non-empty line, trimmed; if there is no such line, the result is
//     the empty string.
func ExtractResult(output string) string {
	lines := strings.Split(output, "\n")
	markerFound := false

	for i, line := range lines {
		idx := strings.Index(line, resultMarker)
		if idx < 0 {
			continue
		}
		markerFound = true

		for j := i + 1; j < len(lines); j++ {
			if trimmed := strings.TrimSpace(lines[j]); trimmed != "" {
				return trimmed
			}
		}

		if trimmed := strings.TrimSpace(line[idx+len(resultMarker):]); trimmed != "" {
			return trimmed
		}
		// Both empty: keep scanning for a later marker occurrence.
	}

	if markerFound {
		// A marker was seen but every occurrence was degenerate (no
		// same-line text, no following non-empty line).
		return ""
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
