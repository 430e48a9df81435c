package authz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/fatih/structs"
	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/errors"
)

//go:embed policy.rego
var authzPolicy string

var ErrUnauthorized = fmt.Errorf("%w: the subject is not authorized for the requested action", errors.Forbidden)

// Request describes an incoming HTTP request for policy evaluation.
type Request struct {
	Path   []string   `json:"path"`
	Method string     `json:"method"`
	Auth   *auth.Auth `json:"auth"`
}

type RequestAuthorizer interface {
	// Authorize returns nil if the subject of the request is allowed to
	// perform it, ErrUnauthorized otherwise.
	Authorize(ctx context.Context, request *Request) error
	EvaluatePolicy(ctx context.Context, input map[string]interface{}) error
}

func NewRequestAuthorizer(logger *zap.SugaredLogger) (RequestAuthorizer, error) {
	compiler, err := ast.CompileModules(map[string]string{
		"policy.rego": authzPolicy,
	})
	if err != nil {
		return nil, err
	}

	return &embeddedOpaAuthorizer{
		policy: compiler,
		logger: logger,
	}, nil
}

type embeddedOpaAuthorizer struct {
	policy *ast.Compiler
	logger *zap.SugaredLogger
}

func (e *embeddedOpaAuthorizer) Authorize(ctx context.Context, request *Request) error {
	if request == nil {
		return ErrUnauthorized
	}

	input := map[string]interface{}{
		"path":   request.Path,
		"method": strings.ToUpper(request.Method),
	}
	if request.Auth != nil {
		s := structs.New(*request.Auth)
		s.TagName = "json"
		input["auth"] = s.Map()
	}

	return e.EvaluatePolicy(ctx, input)
}

func (e *embeddedOpaAuthorizer) EvaluatePolicy(ctx context.Context, input map[string]interface{}) error {
	r := rego.New(
		rego.Package("http.authz.tracker"),
		rego.Query("allow"),
		rego.Compiler(e.policy),
		rego.Input(input),
	)

	results, err := r.Eval(ctx)
	if err != nil {
		return fmt.Errorf("error evaluating authorization policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return fmt.Errorf("unexpected authorization policy result")
	}

	val, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return fmt.Errorf("unexpected authorization policy result of type %T", results[0].Expressions[0].Value)
	}

	e.logger.Debugw("policy evaluation result", "input", input, "result", val)
	if !val {
		return ErrUnauthorized
	}

	return nil
}

// SplitPath splits a request path into the segments the policy matches on,
// dropping the leading empty segment of a rooted path.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	return parts
}
