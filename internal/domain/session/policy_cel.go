package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxExpressionLength bounds configured CEL expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit.
const maxCostBudget = 10_000

// evalTimeout bounds a single evaluation.
const evalTimeout = time.Second

// interruptCheckFreq is how many comprehension iterations run between
// checks of the evaluation context.
const interruptCheckFreq = 100

// CELPolicy judges token validity with a CEL expression over
//
//	claims  map(string, dyn)  JWT claims, empty for opaque tokens
//	token   string            the raw token
//	now     timestamp         evaluation time
//
// The expression answers "is the session still valid?"; false means expired.
// Example: !has(claims.exp) || int(claims.exp) > int(now)
type CELPolicy struct {
	expr string
	prg  cel.Program
}

// NewCELPolicy compiles expr. It must type-check to bool.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	if expr == "" {
		return nil, errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}

	env, err := cel.NewEnv(
		cel.Variable("claims", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("token", cel.StringType),
		cel.Variable("now", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return bool, got %s", out)
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	return &CELPolicy{expr: expr, prg: prg}, nil
}

// Expired evaluates the expression. Evaluation errors leave the token valid
// so the server stays the authority.
func (p *CELPolicy) Expired(token string, now time.Time) bool {
	claims := map[string]any{}
	if c, ok := unverifiedClaims(token); ok {
		claims = c
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	valid, err := p.valid(ctx, claims, token, now)
	return err == nil && !valid
}

// valid runs the program until ctx is done.
func (p *CELPolicy) valid(ctx context.Context, claims map[string]any, token string, now time.Time) (bool, error) {
	out, _, err := p.prg.ContextEval(ctx, map[string]any{
		"claims": claims,
		"token":  token,
		"now":    now,
	})
	if err != nil {
		return false, err
	}
	valid, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out.Value())
	}
	return valid, nil
}

// String returns the source expression.
func (p *CELPolicy) String() string {
	return p.expr
}
