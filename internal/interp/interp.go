// Package interp is the tree-walking evaluator for filescript programs. It
// owns the runtime value model, the built-in functions, and the File and
// Directory capability tables through which scripts touch the filesystem
// and the semantic index.
package interp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"filescript/internal/domain"
	"filescript/internal/embedding"
	"filescript/internal/errs"
	"filescript/internal/extract"
	"filescript/internal/parser"
	"filescript/internal/sandbox"
)

// Options configures an Interpreter. Cwd is where relative script paths are
// anchored; SandboxRoot bounds every resolved path and defaults to Cwd.
type Options struct {
	Cwd            string
	SandboxRoot    string
	Stdout         io.Writer
	TextChunkLines int
	Logger         *zap.Logger
}

type Interpreter struct {
	cwd       string
	resolver  *sandbox.Resolver
	extractor *extract.Service
	embedder  domain.Embedder
	logger    *zap.Logger
	stdout    io.Writer

	vars  map[string]Value
	lines []string
}

func New(opts Options) (*Interpreter, error) {
	cwd := opts.Cwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}
	// Resolved paths come back canonical, so the display anchor must be too.
	if canonical, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = canonical
	}
	root := opts.SandboxRoot
	if root == "" {
		root = cwd
	}
	resolver, err := sandbox.New(root)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	chunkLines := opts.TextChunkLines
	if chunkLines <= 0 {
		chunkLines = extract.DefaultTextChunkLines
	}
	return &Interpreter{
		cwd:       cwd,
		resolver:  resolver,
		extractor: extract.New(chunkLines),
		embedder:  embedding.NewHashEmbedder(),
		logger:    logger,
		stdout:    stdout,
		vars:      map[string]Value{},
	}, nil
}

// Run parses and executes one script. Variables persist across calls, which
// is what the interactive console relies on. The returned error is a
// *errs.SyntaxError or *errs.RuntimeError for script-level failures.
func (in *Interpreter) Run(source string) error {
	program, err := parser.Parse(source)
	if err != nil {
		return err
	}
	in.lines = strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	defer func() { in.lines = nil }()
	return in.execBlock(program.Statements)
}

// Eval runs one console submission and returns what it printed. Output is
// captured per call while variables persist on the interpreter.
func (in *Interpreter) Eval(source string) (string, error) {
	var buf bytes.Buffer
	prev := in.stdout
	in.stdout = &buf
	defer func() { in.stdout = prev }()
	err := in.Run(source)
	return buf.String(), err
}

// Execute runs source in a fresh interpreter and returns everything the
// script printed. The transcript is returned even when execution fails
// partway through.
func Execute(source, cwd, sandboxRoot string) (string, error) {
	var buf bytes.Buffer
	in, err := New(Options{Cwd: cwd, SandboxRoot: sandboxRoot, Stdout: &buf})
	if err != nil {
		return "", err
	}
	err = in.Run(source)
	return buf.String(), err
}

// sourceLine returns the raw text of a 1-based script line, for error
// rendering.
func (in *Interpreter) sourceLine(line int) string {
	if line < 1 || line > len(in.lines) {
		return ""
	}
	return in.lines[line-1]
}

// fail panics with a RuntimeError pinned to loc; execBlock's caller recovers
// it. Errors that already carry a location keep it.
func (in *Interpreter) fail(err *errs.RuntimeError, loc errs.Location) {
	panic(err.At(loc, in.sourceLine(loc.Line)))
}

func (in *Interpreter) execBlock(stmts []parser.Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if runtimeErr, ok := r.(*errs.RuntimeError); ok {
				err = runtimeErr
				return
			}
			panic(r)
		}
	}()
	in.execStmts(stmts)
	return nil
}

func (in *Interpreter) execStmts(stmts []parser.Stmt) {
	for _, stmt := range stmts {
		in.execStmt(stmt)
	}
}

func (in *Interpreter) execStmt(stmt parser.Stmt) {
	switch s := stmt.(type) {
	case *parser.Assign:
		in.vars[s.Name] = in.eval(s.Value)
	case *parser.ExprStmt:
		in.eval(s.Value)
	case *parser.ForStmt:
		in.execFor(s)
	case *parser.IfStmt:
		for _, branch := range s.Branches {
			if isTruthy(in.eval(branch.Cond)) {
				in.execStmts(branch.Body)
				return
			}
		}
		in.execStmts(s.Else)
	}
}

func (in *Interpreter) execFor(s *parser.ForStmt) {
	iterable := in.eval(s.Iterable)
	var items []Value
	switch val := iterable.(type) {
	case List:
		// Snapshot so body mutations of the variable cannot alter iteration.
		items = append(items, val...)
	case *Dir:
		files, err := val.fileValues(val.recursive)
		if err != nil {
			in.fail(err, s.Iterable.Loc())
		}
		items = files
	default:
		in.fail(errs.Runtimef("Cannot iterate over a value of type '%s'", iterable.typeName()), s.Iterable.Loc())
	}
	for _, item := range items {
		in.vars[s.Var] = item
		in.execStmts(s.Body)
	}
}

func (in *Interpreter) eval(expr parser.Expr) Value {
	switch e := expr.(type) {
	case *parser.IntLit:
		return Int(e.Value)
	case *parser.StringLit:
		return Str(e.Value)
	case *parser.BoolLit:
		return Bool(e.Value)
	case *parser.Name:
		return in.evalName(e)
	case *parser.ListLit:
		return in.evalList(e)
	case *parser.RangeItem:
		in.fail(errs.NewRuntimeError("Ranges are only allowed inside list literals"), e.Location)
	case *parser.Attr:
		return in.evalAttr(e)
	case *parser.Call:
		return in.evalCall(e)
	case *parser.Unary:
		return in.evalUnary(e)
	case *parser.Binary:
		return in.evalBinary(e)
	case *parser.Compare:
		return in.evalCompare(e)
	}
	panic(errs.NewRuntimeError("Unsupported expression"))
}

func (in *Interpreter) evalName(e *parser.Name) Value {
	if val, ok := in.vars[e.Ident]; ok {
		return val
	}
	if _, ok := builtins[e.Ident]; ok {
		return builtinFunc(e.Ident)
	}
	in.fail(errs.Runtimef("Undefined variable '%s'", e.Ident), e.Location)
	return nil
}

func (in *Interpreter) evalList(e *parser.ListLit) Value {
	items := make(List, 0, len(e.Items))
	for _, item := range e.Items {
		if rng, ok := item.(*parser.RangeItem); ok {
			items = append(items, in.expandRange(rng)...)
			continue
		}
		items = append(items, in.eval(item))
	}
	return items
}

// expandRange materializes an inclusive `a:b` item. A descending range
// counts down.
func (in *Interpreter) expandRange(rng *parser.RangeItem) []Value {
	start, ok := in.eval(rng.Start).(Int)
	if !ok {
		in.fail(errs.NewRuntimeError("Range bounds must be integers"), rng.Start.Loc())
	}
	end, ok := in.eval(rng.End).(Int)
	if !ok {
		in.fail(errs.NewRuntimeError("Range bounds must be integers"), rng.End.Loc())
	}
	step := Int(1)
	if end < start {
		step = -1
	}
	var out []Value
	for v := start; ; v += step {
		out = append(out, v)
		if v == end {
			break
		}
	}
	return out
}

func (in *Interpreter) evalAttr(e *parser.Attr) Value {
	obj := in.eval(e.Object)
	var table map[string]methodImpl
	switch obj.(type) {
	case *File:
		table = fileMethods
	case *Dir:
		table = dirMethods
	}
	if table != nil {
		if impl, ok := table[e.Name]; ok {
			return &boundMethod{recv: obj, name: e.Name, method: impl}
		}
	}
	in.fail(errs.Runtimef("Object of type '%s' has no attribute '%s'", obj.typeName(), e.Name), e.Location)
	return nil
}

func (in *Interpreter) evalCall(e *parser.Call) Value {
	callee := in.eval(e.Callee)
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		args[i] = in.eval(arg)
	}
	kwargs := make(map[string]Value, len(e.Kwargs))
	for _, kw := range e.Kwargs {
		kwargs[kw.Name] = in.eval(kw.Value)
	}
	switch fn := callee.(type) {
	case builtinFunc:
		result, err := builtins[string(fn)](in, args, kwargs)
		if err != nil {
			in.fail(err, e.Location)
		}
		return result
	case *boundMethod:
		result, err := fn.method(in, fn.recv, args, kwargs)
		if err != nil {
			in.fail(err, e.Location)
		}
		return result
	}
	in.fail(errs.Runtimef("Value of type '%s' is not callable", callee.typeName()), e.Location)
	return nil
}

func (in *Interpreter) evalUnary(e *parser.Unary) Value {
	operand := in.eval(e.Operand)
	switch e.Op {
	case "not":
		return Bool(!isTruthy(operand))
	case "-":
		if val, ok := operand.(Int); ok {
			return -val
		}
		in.fail(errs.Runtimef("Unary '-' requires an integer, got '%s'", operand.typeName()), e.Location)
	}
	in.fail(errs.Runtimef("Unknown unary operator '%s'", e.Op), e.Location)
	return nil
}

func (in *Interpreter) evalBinary(e *parser.Binary) Value {
	// and/or short-circuit and always produce a boolean.
	switch e.Op {
	case "and":
		if !isTruthy(in.eval(e.Left)) {
			return Bool(false)
		}
		return Bool(isTruthy(in.eval(e.Right)))
	case "or":
		if isTruthy(in.eval(e.Left)) {
			return Bool(true)
		}
		return Bool(isTruthy(in.eval(e.Right)))
	}

	left := in.eval(e.Left)
	right := in.eval(e.Right)
	if e.Op == "+" {
		if result, ok := addValues(left, right); ok {
			return result
		}
		in.fail(errs.Runtimef("Cannot add values of type '%s' and '%s'", left.typeName(), right.typeName()), e.Location)
	}

	leftInt, lok := left.(Int)
	rightInt, rok := right.(Int)
	if !lok || !rok {
		in.fail(errs.Runtimef("Operator '%s' requires integers, got '%s' and '%s'", e.Op, left.typeName(), right.typeName()), e.Location)
	}
	switch e.Op {
	case "-":
		return leftInt - rightInt
	case "*":
		return leftInt * rightInt
	case "/":
		if rightInt == 0 {
			in.fail(errs.NewRuntimeError("Division by zero"), e.Location)
		}
		return leftInt / rightInt
	case "%":
		if rightInt == 0 {
			in.fail(errs.NewRuntimeError("Modulo by zero"), e.Location)
		}
		return leftInt % rightInt
	}
	in.fail(errs.Runtimef("Unknown operator '%s'", e.Op), e.Location)
	return nil
}

func addValues(left, right Value) (Value, bool) {
	if a, ok := left.(Int); ok {
		if b, ok := right.(Int); ok {
			return a + b, true
		}
	}
	if a, ok := left.(Str); ok {
		if b, ok := right.(Str); ok {
			return a + b, true
		}
	}
	if a, ok := left.(List); ok {
		if b, ok := right.(List); ok {
			joined := make(List, 0, len(a)+len(b))
			joined = append(joined, a...)
			joined = append(joined, b...)
			return joined, true
		}
	}
	return nil, false
}

func (in *Interpreter) evalCompare(e *parser.Compare) Value {
	left := in.eval(e.Left)
	right := in.eval(e.Right)
	switch e.Op {
	case "==":
		return Bool(valuesEqual(left, right))
	case "!=":
		return Bool(!valuesEqual(left, right))
	case "in":
		result, err := in.evalIn(left, right)
		if err != nil {
			in.fail(err, e.Location)
		}
		return result
	}
	cmp, err := compareValues(left, right)
	if err != nil {
		in.fail(err, e.Location)
	}
	switch e.Op {
	case "<":
		return Bool(cmp < 0)
	case "<=":
		return Bool(cmp <= 0)
	case ">":
		return Bool(cmp > 0)
	case ">=":
		return Bool(cmp >= 0)
	}
	in.fail(errs.Runtimef("Unknown comparison '%s'", e.Op), e.Location)
	return nil
}

// evalIn implements membership: list element equality, string substring, and
// name match for Directory/File containers.
func (in *Interpreter) evalIn(left, right Value) (Value, *errs.RuntimeError) {
	switch container := right.(type) {
	case List:
		for _, item := range container {
			if valuesEqual(left, item) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case Str:
		needle, ok := left.(Str)
		if !ok {
			return nil, errs.Runtimef("'in' on a string requires a string operand, got '%s'", left.typeName())
		}
		return Bool(strings.Contains(string(container), string(needle))), nil
	case *File:
		needle, ok := left.(Str)
		if !ok {
			return nil, errs.Runtimef("'in' on a File requires a string operand, got '%s'", left.typeName())
		}
		return Bool(strings.Contains(filepath.Base(container.path), string(needle))), nil
	case *Dir:
		needle, ok := left.(Str)
		if !ok {
			return nil, errs.Runtimef("'in' on a Directory requires a string operand, got '%s'", left.typeName())
		}
		return Bool(strings.Contains(filepath.Base(container.path), string(needle))), nil
	}
	return nil, errs.Runtimef("'in' is not supported for container type '%s'", right.typeName())
}
