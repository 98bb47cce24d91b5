package interp

import (
	"regexp"

	"filescript/internal/errs"
)

// param describes one formal parameter of a capability-table method. A nil
// default marks the parameter as required.
type param struct {
	name string
	def  Value
}

// bindArgs maps positional and keyword arguments onto named parameters,
// filling defaults and rejecting unknown or duplicated arguments.
func bindArgs(method string, params []param, args []Value, kwargs map[string]Value) (map[string]Value, *errs.RuntimeError) {
	if len(args) > len(params) {
		return nil, errs.Runtimef("%s() takes at most %d arguments, got %d", method, len(params), len(args))
	}
	bound := make(map[string]Value, len(params))
	for i, arg := range args {
		bound[params[i].name] = arg
	}
	for name, value := range kwargs {
		known := false
		for _, p := range params {
			if p.name == name {
				known = true
				break
			}
		}
		if !known {
			return nil, errs.Runtimef("%s() got an unexpected keyword argument '%s'", method, name)
		}
		if _, dup := bound[name]; dup {
			return nil, errs.Runtimef("%s() got multiple values for argument '%s'", method, name)
		}
		bound[name] = value
	}
	for _, p := range params {
		if _, ok := bound[p.name]; ok {
			continue
		}
		if p.def == nil {
			return nil, errs.Runtimef("%s() missing required argument '%s'", method, p.name)
		}
		bound[p.name] = p.def
	}
	return bound, nil
}

func boolArg(bound map[string]Value, name string) (bool, *errs.RuntimeError) {
	val, ok := bound[name].(Bool)
	if !ok {
		return false, errs.Runtimef("%s must be a boolean", name)
	}
	return bool(val), nil
}

// optBoolArg treats none as "use the receiver's default".
func optBoolArg(bound map[string]Value, name string, fallback bool) (bool, *errs.RuntimeError) {
	if _, isNone := bound[name].(None); isNone {
		return fallback, nil
	}
	return boolArg(bound, name)
}

func compileRegex(pattern Value, ignoreCase bool) (*regexp.Regexp, *errs.RuntimeError) {
	text, ok := pattern.(Str)
	if !ok {
		return nil, errs.NewRuntimeError("Regex pattern must be a string")
	}
	expr := string(text)
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errs.Runtimef("Invalid regex pattern: %v", err)
	}
	return re, nil
}
