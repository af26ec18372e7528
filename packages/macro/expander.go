package macro

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/kbhelper/packages/builtin"
	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	"go.uber.org/zap"
)

// Build is the build a template is expanded for.
type Build struct {
	JobName   string
	Number    int
	ID        string
	URL       string
	Workspace string
	Vars      env.Vars
}

// Expander expands a template for a build. Progress or warnings go to listener,
// which may be nil.
type Expander interface {
	Expand(ctx context.Context, build *Build, listener io.Writer, template string) (string, error)
}

// Func evaluates one macro with its parsed arguments.
type Func func(ctx context.Context, build *Build, args map[string]string) (string, error)

var callPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// TokenExpander is the default Expander.
//
// Macros are written $NAME, ${NAME} or ${NAME,arg="value",flag}; "$$" produces a
// literal "$". Registered macros take precedence over build variables of the same
// name. References that resolve to neither are left as written. Builtin function
// calls ({{fn(args)}}) are evaluated after macros.
type TokenExpander struct {
	macros map[string]Func
	funcs  *builtin.Registry
	logger *zap.Logger
}

type Option func(*TokenExpander)

func WithFunctions(funcs *builtin.Registry) Option {
	return func(x *TokenExpander) {
		if funcs != nil {
			x.funcs = funcs
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(x *TokenExpander) {
		if logger != nil {
			x.logger = logger
		}
	}
}

func NewTokenExpander(opts ...Option) *TokenExpander {
	x := &TokenExpander{
		macros: make(map[string]Func),
		funcs:  builtin.NewRegistry(),
		logger: zap.NewNop(),
	}
	x.registerDefaults()
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *TokenExpander) registerDefaults() {
	x.macros["ENV"] = macroEnv
	x.macros["FILE"] = macroFile
	x.macros["BUILD_NUMBER"] = buildField("BUILD_NUMBER", func(b *Build) string {
		if b.Number > 0 {
			return strconv.Itoa(b.Number)
		}
		return ""
	})
	x.macros["BUILD_ID"] = buildField("BUILD_ID", func(b *Build) string { return b.ID })
	x.macros["JOB_NAME"] = buildField("JOB_NAME", func(b *Build) string { return b.JobName })
	x.macros["BUILD_URL"] = buildField("BUILD_URL", func(b *Build) string { return b.URL })
	x.macros["WORKSPACE"] = buildField("WORKSPACE", func(b *Build) string { return b.Workspace })
}

// Register adds or replaces a macro.
func (x *TokenExpander) Register(name string, fn Func) {
	x.macros[name] = fn
}

func (x *TokenExpander) Expand(ctx context.Context, build *Build, listener io.Writer, template string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if build == nil {
		build = &Build{}
	}

	expanded, err := x.expandMacros(ctx, build, template)
	if err != nil {
		return "", err
	}
	return x.expandCalls(expanded, listener)
}

func (x *TokenExpander) expandMacros(ctx context.Context, build *Build, s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var out strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' || i+1 >= len(s) {
			out.WriteByte(s[i])
			i++
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			out.WriteByte('$')
			i += 2

		case next == '{':
			end := closingBrace(s, i+2)
			if end < 0 {
				return "", &EvaluationError{Macro: s[i:], Reason: "unterminated macro"}
			}
			raw := s[i : end+1]
			tok, err := parseToken(raw, s[i+2:end])
			if err != nil {
				return "", err
			}
			if err := x.write(ctx, build, &out, tok, raw); err != nil {
				return "", err
			}
			i = end + 1

		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			raw := s[i:j]
			if err := x.write(ctx, build, &out, &token{name: s[i+1 : j]}, raw); err != nil {
				return "", err
			}
			i = j

		default:
			out.WriteByte('$')
			i++
		}
	}
	return out.String(), nil
}

func (x *TokenExpander) write(ctx context.Context, build *Build, out *strings.Builder, tok *token, raw string) error {
	if fn, ok := x.macros[tok.name]; ok {
		value, err := fn(ctx, build, tok.args)
		if err != nil {
			return err
		}
		out.WriteString(value)
		return nil
	}

	if len(tok.args) == 0 {
		if value, ok := build.Vars[tok.name]; ok {
			out.WriteString(value)
			return nil
		}
	}

	x.logger.Debug("leaving unknown macro as-is", zap.String("macro", raw))
	out.WriteString(raw)
	return nil
}

func (x *TokenExpander) expandCalls(s string, listener io.Writer) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var firstErr error
	result := callPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		expr := strings.TrimSpace(match[2 : len(match)-2])
		value, ok, err := x.funcs.Call(expr)
		if err != nil {
			firstErr = &EvaluationError{Macro: match, Reason: "function failed", Err: err}
			return match
		}
		if !ok {
			if listener != nil {
				fmt.Fprintf(listener, "unresolved function call: %s\n", expr)
			}
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// buildField returns a macro reading a build attribute, falling back to the build
// variable of the same name when the attribute is unset.
func buildField(name string, get func(*Build) string) Func {
	return func(_ context.Context, build *Build, _ map[string]string) (string, error) {
		if v := get(build); v != "" {
			return v, nil
		}
		return build.Vars[name], nil
	}
}

func macroEnv(_ context.Context, build *Build, args map[string]string) (string, error) {
	name, ok := args["var"]
	if !ok || name == "" {
		return "", &EvaluationError{Macro: "ENV", Reason: `missing "var" argument`}
	}
	return build.Vars[name], nil
}

func macroFile(_ context.Context, build *Build, args map[string]string) (string, error) {
	path, ok := args["path"]
	if !ok || path == "" {
		return "", &EvaluationError{Macro: "FILE", Reason: `missing "path" argument`}
	}

	if !filepath.IsAbs(path) && build.Workspace != "" {
		path = filepath.Join(build.Workspace, path)
	}
	if err := validatePathWithinBase(path, build.Workspace); err != nil {
		return "", &EvaluationError{Macro: "FILE", Reason: "path rejected", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
