// Package cel provides a CEL-based expression evaluator used to resolve
// routes by arbitrary conditions instead of an exact hostname match.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxExpressionLength bounds how long a route condition may be.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit, guarding against
// cost-exhaustion from an adversarial or mistyped condition.
const maxCostBudget = 100_000

// maxNestingDepth bounds parenthesis/bracket nesting in a condition.
const maxNestingDepth = 50

// evalTimeout bounds a single evaluation.
const evalTimeout = 2 * time.Second

// interruptCheckFreq is how often, in comprehension iterations, context
// cancellation is checked.
const interruptCheckFreq = 100

// Request is the read-only view of an inbound request a route condition may
// inspect.
type Request struct {
	Host   string
	Method string
	Path   string
}

// Evaluator compiles and evaluates route-condition expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator builds an Evaluator whose expressions see a single "request"
// variable with host, method, and path fields, e.g.:
//
//	request.host.endsWith(".internal") && request.method == "GET"
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("request", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel: build environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks expr, returning a program ready to
// evaluate under the runtime cost limit. It does not check expression length
// or nesting depth; ValidateExpression does.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel: compile: %w", issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("cel: build program: %w", err)
	}
	return prg, nil
}

// ValidateExpression checks expr for length, nesting, and compile errors
// without evaluating it, so route configuration can reject a bad condition
// at load time instead of on the first matching connection.
func (e *Evaluator) ValidateExpression(expr string) error {
	if expr == "" {
		return errors.New("cel: expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("cel: expression too long: %d chars (max %d)", len(expr), maxExpressionLength)
	}
	if err := validateNesting(expr); err != nil {
		return err
	}
	_, err := e.Compile(expr)
	return err
}

func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("cel: expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Evaluate runs prg against req under a bounded timeout and returns whether
// the condition matched.
func (e *Evaluator) Evaluate(prg cel.Program, req Request) (bool, error) {
	activation := map[string]interface{}{
		"request": map[string]string{
			"host":   req.Host,
			"method": req.Method,
			"path":   req.Path,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("cel: evaluate: %w", err)
	}
	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel: expression did not return bool, got %T", result.Value())
	}
	return b, nil
}
