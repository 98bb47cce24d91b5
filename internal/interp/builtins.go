package interp

import (
	"fmt"
	"strings"

	"filescript/internal/errs"
)

type builtinImpl func(in *Interpreter, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError)

type methodImpl func(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError)

var builtins map[string]builtinImpl

func init() {
	// Assigned in init to avoid an initialization cycle through evalName.
	builtins = map[string]builtinImpl{
		"print":     builtinPrint,
		"len":       builtinLen,
		"File":      builtinFile,
		"Directory": builtinDirectory,
	}
}

func builtinPrint(in *Interpreter, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	if err := rejectKwargs("print", kwargs); err != nil {
		return nil, err
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = renderValue(arg)
	}
	fmt.Fprintln(in.stdout, strings.Join(parts, " "))
	return None{}, nil
}

func builtinLen(in *Interpreter, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	if err := rejectKwargs("len", kwargs); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, errs.Runtimef("len() takes exactly one argument, got %d", len(args))
	}
	n, err := valueLen(args[0])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func builtinFile(in *Interpreter, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	path, err := singlePathArg("File", args, kwargs)
	if err != nil {
		return nil, err
	}
	return in.newFile(path)
}

func builtinDirectory(in *Interpreter, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	path, err := singlePathArg("Directory", args, kwargs)
	if err != nil {
		return nil, err
	}
	recursive := true
	if raw, ok := kwargs["recursive"]; ok {
		flag, ok := raw.(Bool)
		if !ok {
			return nil, errs.NewRuntimeError("recursive must be a boolean")
		}
		recursive = bool(flag)
		delete(kwargs, "recursive")
	}
	if err := rejectKwargs("Directory", kwargs); err != nil {
		return nil, err
	}
	return in.newDir(path, recursive)
}

func singlePathArg(name string, args []Value, kwargs map[string]Value) (string, *errs.RuntimeError) {
	if len(args) == 0 {
		if raw, ok := kwargs["path"]; ok {
			args = append(args, raw)
			delete(kwargs, "path")
		}
	}
	if len(args) != 1 {
		return "", errs.Runtimef("%s() takes exactly one path argument", name)
	}
	path, ok := args[0].(Str)
	if !ok {
		return "", errs.Runtimef("%s() path must be a string, got '%s'", name, args[0].typeName())
	}
	return string(path), nil
}

func rejectKwargs(name string, kwargs map[string]Value) *errs.RuntimeError {
	for key := range kwargs {
		return errs.Runtimef("%s() got an unexpected keyword argument '%s'", name, key)
	}
	return nil
}
