package ffi

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// NewBaseRegistry builds the registry the core expects to find populated
// for interoperability of packaged programs: numeric, string, I/O, type
// reflection, and array routines (spec §4.6). stdout/stderr back Print/
// PrintLn/PrintF/Debug/Eprint; either may be nil to use os.Stdout/os.Stderr.
func NewBaseRegistry(stdout, stderr io.Writer) *Registry {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	r := NewRegistry()
	registerNumeric(r)
	registerString(r)
	registerIO(r, stdout, stderr)
	registerReflection(r)
	registerArray(r)
	return r
}

func numberArg(name string, args []Value, i int) (float64, *Error) {
	if args[i].Kind != KindNumber {
		return 0, NewArgumentType(name, i, "Number", args[i].Kind)
	}
	return args[i].AsNumber(), nil
}

func registerNumeric(r *Registry) {
	unary := func(name string, fn func(float64) float64) {
		r.Register(&Routine{Name: name, MinArity: 1, Call: func(args []Value) (Value, error) {
			x, err := numberArg(name, args, 0)
			if err != nil {
				return Value{}, err
			}
			return Number(fn(x)), nil
		}})
	}
	unary("Sqrt", math.Sqrt)
	unary("Abs", math.Abs)
	unary("Sin", math.Sin)
	unary("Cos", math.Cos)
	unary("Floor", math.Floor)
	unary("Ceil", math.Ceil)
	unary("Round", math.Round)

	r.Register(&Routine{Name: "Min", MinArity: 2, Call: func(args []Value) (Value, error) {
		a, err := numberArg("Min", args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := numberArg("Min", args, 1)
		if err != nil {
			return Value{}, err
		}
		return Number(math.Min(a, b)), nil
	}})
	r.Register(&Routine{Name: "Max", MinArity: 2, Call: func(args []Value) (Value, error) {
		a, err := numberArg("Max", args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := numberArg("Max", args, 1)
		if err != nil {
			return Value{}, err
		}
		return Number(math.Max(a, b)), nil
	}})
	r.Register(&Routine{Name: "Pow", MinArity: 2, Call: func(args []Value) (Value, error) {
		a, err := numberArg("Pow", args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := numberArg("Pow", args, 1)
		if err != nil {
			return Value{}, err
		}
		return Number(math.Pow(a, b)), nil
	}})
	r.Register(&Routine{Name: "Log", MinArity: 1, Call: func(args []Value) (Value, error) {
		x, err := numberArg("Log", args, 0)
		if err != nil {
			return Value{}, err
		}
		return Number(math.Log(x)), nil
	}})
}

func textArg(name string, args []Value, i int) (string, *Error) {
	if args[i].Kind != KindString {
		return "", NewArgumentType(name, i, "String", args[i].Kind)
	}
	return args[i].AsString(), nil
}

func registerString(r *Registry) {
	r.Register(&Routine{Name: "StrLength", MinArity: 1, Call: func(args []Value) (Value, error) {
		s, err := textArg("StrLength", args, 0)
		if err != nil {
			return Value{}, err
		}
		return Number(float64(len([]rune(s)))), nil
	}})
	r.Register(&Routine{Name: "StrUpper", MinArity: 1, Call: func(args []Value) (Value, error) {
		s, err := textArg("StrUpper", args, 0)
		if err != nil {
			return Value{}, err
		}
		return String(strings.ToUpper(s)), nil
	}})
	r.Register(&Routine{Name: "StrLower", MinArity: 1, Call: func(args []Value) (Value, error) {
		s, err := textArg("StrLower", args, 0)
		if err != nil {
			return Value{}, err
		}
		return String(strings.ToLower(s)), nil
	}})
	r.Register(&Routine{Name: "StrConcat", MinArity: 0, Variadic: true, Call: func(args []Value) (Value, error) {
		var b strings.Builder
		for i, a := range args {
			if a.Kind != KindString {
				return Value{}, NewArgumentType("StrConcat", i, "String", a.Kind)
			}
			b.WriteString(a.AsString())
		}
		return String(b.String()), nil
	}})
	r.Register(&Routine{Name: "StrSplit", MinArity: 2, Call: func(args []Value) (Value, error) {
		s, err := textArg("StrSplit", args, 0)
		if err != nil {
			return Value{}, err
		}
		sep, err := textArg("StrSplit", args, 1)
		if err != nil {
			return Value{}, err
		}
		parts := strings.Split(s, sep)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = String(p)
		}
		return Array(out), nil
	}})
	r.Register(&Routine{Name: "StrTrim", MinArity: 1, Call: func(args []Value) (Value, error) {
		s, err := textArg("StrTrim", args, 0)
		if err != nil {
			return Value{}, err
		}
		return String(strings.TrimSpace(s)), nil
	}})
}

func registerIO(r *Registry, stdout, stderr io.Writer) {
	r.Register(&Routine{Name: "Print", MinArity: 1, Call: func(args []Value) (Value, error) {
		fmt.Fprint(stdout, render(args[0]))
		return Unit, nil
	}})
	r.Register(&Routine{Name: "PrintLn", MinArity: 1, Call: func(args []Value) (Value, error) {
		fmt.Fprintln(stdout, render(args[0]))
		return Unit, nil
	}})
	r.Register(&Routine{Name: "Eprint", MinArity: 1, Call: func(args []Value) (Value, error) {
		fmt.Fprint(stderr, render(args[0]))
		return Unit, nil
	}})
	r.Register(&Routine{Name: "Debug", MinArity: 1, Call: func(args []Value) (Value, error) {
		fmt.Fprintln(stdout, debugString(args[0]))
		return Unit, nil
	}})
	r.Register(&Routine{Name: "PrintF", MinArity: 1, Variadic: true, Call: func(args []Value) (Value, error) {
		format, err := textArg("PrintF", args, 0)
		if err != nil {
			return Value{}, err
		}
		rendered, ferr := formatPlaceholders(format, args[1:])
		if ferr != nil {
			return Value{}, ferr
		}
		fmt.Fprint(stdout, rendered)
		return Unit, nil
	}})
}

// formatPlaceholders implements PrintF's "{}"/"{N}" convention (spec §4.6).
func formatPlaceholders(format string, args []Value) (string, *Error) {
	var b strings.Builder
	next := 0
	i := 0
	for i < len(format) {
		if format[i] != '{' {
			b.WriteByte(format[i])
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			b.WriteByte(format[i])
			i++
			continue
		}
		token := format[i+1 : i+end]
		i += end + 1

		var idx int
		if token == "" {
			idx = next
			next++
		} else {
			n, err := strconv.Atoi(token)
			if err != nil {
				b.WriteByte('{')
				b.WriteString(token)
				b.WriteByte('}')
				continue
			}
			idx = n
		}
		if idx < 0 || idx >= len(args) {
			return "", NewArgumentCount("PrintF", idx+1, len(args))
		}
		b.WriteString(render(args[idx]))
	}
	return b.String(), nil
}

func render(v Value) string {
	if v.Kind == KindString {
		return v.AsString()
	}
	return debugString(v)
}

func debugString(v Value) string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case KindBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case KindString:
		return v.AsString()
	case KindUnit:
		return "()"
	case KindUndefined:
		return "undefined"
	case KindArray:
		parts := make([]string, len(v.AsArray()))
		for i, e := range v.AsArray() {
			parts[i] = debugString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		var parts []string
		for name, fv := range v.AsObject() {
			parts = append(parts, name+": "+debugString(fv))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}

func registerReflection(r *Registry) {
	r.Register(&Routine{Name: "TypeOf", MinArity: 1, Call: func(args []Value) (Value, error) {
		return String(args[0].Kind.String()), nil
	}})
	kindCheck := func(name string, k Kind) {
		r.Register(&Routine{Name: name, MinArity: 1, Call: func(args []Value) (Value, error) {
			return Boolean(args[0].Kind == k), nil
		}})
	}
	kindCheck("IsNumber", KindNumber)
	kindCheck("IsString", KindString)
	kindCheck("IsBool", KindBoolean)
	kindCheck("IsArray", KindArray)
	r.Register(&Routine{Name: "ToString", MinArity: 1, Call: func(args []Value) (Value, error) {
		return String(debugString(args[0])), nil
	}})
	r.Register(&Routine{Name: "ToNumber", MinArity: 1, Call: func(args []Value) (Value, error) {
		switch args[0].Kind {
		case KindNumber:
			return args[0], nil
		case KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(args[0].AsString()), 64)
			if err != nil {
				return Value{}, NewRuntimeError("ToNumber", "not a numeric string")
			}
			return Number(f), nil
		case KindBoolean:
			if args[0].AsBoolean() {
				return Number(1), nil
			}
			return Number(0), nil
		default:
			return Value{}, NewArgumentType("ToNumber", 0, "Number, String, or Boolean", args[0].Kind)
		}
	}})
}

func registerArray(r *Registry) {
	r.Register(&Routine{Name: "ArrayLength", MinArity: 1, Call: func(args []Value) (Value, error) {
		if args[0].Kind != KindArray {
			return Value{}, NewArgumentType("ArrayLength", 0, "Array", args[0].Kind)
		}
		return Number(float64(len(args[0].AsArray()))), nil
	}})
	r.Register(&Routine{Name: "ArrayPush", MinArity: 2, Call: func(args []Value) (Value, error) {
		if args[0].Kind != KindArray {
			return Value{}, NewArgumentType("ArrayPush", 0, "Array", args[0].Kind)
		}
		out := append(append([]Value{}, args[0].AsArray()...), args[1])
		return Array(out), nil
	}})
}
