package interp

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"filescript/internal/errs"
)

// Value is the tagged union of script runtime values: int, bool, string,
// list, Directory, File and none.
type Value interface {
	typeName() string
}

type Int int

type Bool bool

type Str string

type List []Value

type None struct{}

func (Int) typeName() string   { return "int" }
func (Bool) typeName() string  { return "bool" }
func (Str) typeName() string   { return "str" }
func (List) typeName() string  { return "list" }
func (None) typeName() string  { return "none" }
func (*File) typeName() string { return "File" }
func (*Dir) typeName() string  { return "Directory" }

// builtinFunc marks the four reachable built-in callables.
type builtinFunc string

func (builtinFunc) typeName() string { return "builtin" }

// boundMethod is a capability-table method bound to its receiver.
type boundMethod struct {
	recv   Value
	name   string
	method methodImpl
}

func (*boundMethod) typeName() string { return "method" }

// isTruthy: 0, empty string, empty list, false and none are falsy;
// everything else is truthy.
func isTruthy(v Value) bool {
	switch val := v.(type) {
	case Int:
		return val != 0
	case Bool:
		return bool(val)
	case Str:
		return val != ""
	case List:
		return len(val) > 0
	case None:
		return false
	default:
		return true
	}
}

// valuesEqual compares by type, element-wise for lists, and by resolved path
// for Directory/File. Values of different types are never equal.
func valuesEqual(a, b Value) bool {
	switch left := a.(type) {
	case Int:
		right, ok := b.(Int)
		return ok && left == right
	case Bool:
		right, ok := b.(Bool)
		return ok && left == right
	case Str:
		right, ok := b.(Str)
		return ok && left == right
	case None:
		_, ok := b.(None)
		return ok
	case List:
		right, ok := b.(List)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !valuesEqual(left[i], right[i]) {
				return false
			}
		}
		return true
	case *File:
		right, ok := b.(*File)
		return ok && left.path == right.path
	case *Dir:
		right, ok := b.(*Dir)
		return ok && left.path == right.path
	default:
		return false
	}
}

// compareValues orders Int numerically and Str lexicographically;
// other operand combinations are an error.
func compareValues(a, b Value) (int, *errs.RuntimeError) {
	if left, ok := a.(Int); ok {
		if right, ok := b.(Int); ok {
			switch {
			case left < right:
				return -1, nil
			case left > right:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if left, ok := a.(Str); ok {
		if right, ok := b.(Str); ok {
			return strings.Compare(string(left), string(right)), nil
		}
	}
	return 0, errs.Runtimef("Cannot order values of type '%s' and '%s'", a.typeName(), b.typeName())
}

// renderValue is how print shows a value: strings appear bare, File and
// Directory show their display path, everything else uses its repr form.
func renderValue(v Value) string {
	switch val := v.(type) {
	case Str:
		return string(val)
	case *File:
		return val.displayPath()
	case *Dir:
		return val.displayPath()
	}
	return reprValue(v)
}

// reprValue is the quoted/structured form used inside lists.
func reprValue(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.Itoa(int(val))
	case Bool:
		if val {
			return "True"
		}
		return "False"
	case Str:
		escaped := strings.ReplaceAll(string(val), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "'", "\\'")
		return "'" + escaped + "'"
	case List:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = reprValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case None:
		return "None"
	case *File:
		return "File('" + val.displayPath() + "')"
	case *Dir:
		return "Directory('" + val.displayPath() + "')"
	default:
		return "<" + v.typeName() + ">"
	}
}

func valueLen(v Value) (int, *errs.RuntimeError) {
	switch val := v.(type) {
	case Str:
		return utf8.RuneCountInString(string(val)), nil
	case List:
		return len(val), nil
	case *Dir:
		paths, err := val.filePaths(val.recursive)
		if err != nil {
			return 0, err
		}
		return len(paths), nil
	default:
		return 0, errs.Runtimef("len() does not support values of type '%s'", v.typeName())
	}
}
