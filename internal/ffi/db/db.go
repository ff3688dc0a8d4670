// Package db implements the optional "db" FFI library (SPEC_FULL.md §4.12):
// a thin database/sql wrapper exposed to packaged programs as DbOpen,
// DbQuery, DbExec, and DbClose routines, registered into an ffi.Registry
// only when a package manifest names "db" in its ffi_libraries list.
//
// Three drivers are wired so DbOpen's first argument ("mysql", "postgres",
// or "sqlite") selects the backend at runtime without recompiling the VM:
// go-sql-driver/mysql, lib/pq, and modernc.org/sqlite.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ion-lang/ion/internal/ffi"
)

// driverNames maps the driver argument passed to DbOpen to the
// database/sql driver name each import registers itself under (spec.md
// §4.6/SPEC_FULL.md §4.12; wudi-hey's pkg/pdo package names the same three
// backends mysql/sqlite/pgsql, though DbOpen takes the driver package's own
// "postgres" spelling for its Postgres backend).
var driverNames = map[string]string{
	"mysql":    "mysql",
	"postgres": "postgres",
	"sqlite":   "sqlite",
}

// handles tracks open connections by an opaque integer handle, since
// ffi.Value has no pointer/resource variant to carry a *sql.DB directly
// (spec §4.6's FFI domain is deliberately narrower than the VM's).
type handles struct {
	mu   sync.Mutex
	next float64
	open map[float64]*sql.DB
}

func newHandles() *handles {
	return &handles{open: make(map[float64]*sql.DB)}
}

func (h *handles) store(db *sql.DB) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.open[h.next] = db
	return h.next
}

func (h *handles) get(id float64) (*sql.DB, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	db, ok := h.open[id]
	return db, ok
}

func (h *handles) drop(id float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.open, id)
}

// Register installs DbOpen/DbQuery/DbExec/DbClose into r.
func Register(r *ffi.Registry) {
	hs := newHandles()

	r.Register(&ffi.Routine{
		Name:     "DbOpen",
		MinArity: 2,
		Description: "DbOpen(driver, dsn) -> connection handle (Number) or Error atom",
		Call: func(args []ffi.Value) (ffi.Value, error) {
			driver, err := stringArg("DbOpen", args, 0)
			if err != nil {
				return ffi.Value{}, err
			}
			dsn, err := stringArg("DbOpen", args, 1)
			if err != nil {
				return ffi.Value{}, err
			}
			sqlDriver, ok := driverNames[driver]
			if !ok {
				return ffi.Value{}, ffi.NewRuntimeError("DbOpen", fmt.Sprintf("unsupported driver %q", driver))
			}
			conn, openErr := sql.Open(sqlDriver, dsn)
			if openErr != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbOpen", openErr.Error())
			}
			if pingErr := conn.Ping(); pingErr != nil {
				conn.Close()
				return ffi.Value{}, ffi.NewRuntimeError("DbOpen", pingErr.Error())
			}
			return ffi.Number(hs.store(conn)), nil
		},
	})

	r.Register(&ffi.Routine{
		Name:        "DbQuery",
		MinArity:    2,
		Variadic:    true,
		Description: "DbQuery(handle, sql, ...args) -> Array of Object rows",
		Call: func(args []ffi.Value) (ffi.Value, error) {
			conn, queryArgs, text, err := prep("DbQuery", hs, args)
			if err != nil {
				return ffi.Value{}, err
			}
			rows, qErr := conn.Query(text, queryArgs...)
			if qErr != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbQuery", qErr.Error())
			}
			defer rows.Close()

			cols, colErr := rows.Columns()
			if colErr != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbQuery", colErr.Error())
			}

			var result []ffi.Value
			for rows.Next() {
				scanTargets := make([]any, len(cols))
				scanValues := make([]any, len(cols))
				for i := range scanTargets {
					scanTargets[i] = &scanValues[i]
				}
				if scanErr := rows.Scan(scanTargets...); scanErr != nil {
					return ffi.Value{}, ffi.NewRuntimeError("DbQuery", scanErr.Error())
				}
				fields := make(map[string]ffi.Value, len(cols))
				for i, col := range cols {
					fields[col] = toFFIScalar(scanValues[i])
				}
				result = append(result, ffi.Object(fields))
			}
			if rows.Err() != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbQuery", rows.Err().Error())
			}
			return ffi.Array(result), nil
		},
	})

	r.Register(&ffi.Routine{
		Name:        "DbExec",
		MinArity:    2,
		Variadic:    true,
		Description: "DbExec(handle, sql, ...args) -> rows affected (Number)",
		Call: func(args []ffi.Value) (ffi.Value, error) {
			conn, execArgs, text, err := prep("DbExec", hs, args)
			if err != nil {
				return ffi.Value{}, err
			}
			result, execErr := conn.Exec(text, execArgs...)
			if execErr != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbExec", execErr.Error())
			}
			affected, _ := result.RowsAffected()
			return ffi.Number(float64(affected)), nil
		},
	})

	r.Register(&ffi.Routine{
		Name:        "DbClose",
		MinArity:    1,
		Description: "DbClose(handle) -> Unit",
		Call: func(args []ffi.Value) (ffi.Value, error) {
			if args[0].Kind != ffi.KindNumber {
				return ffi.Value{}, ffi.NewArgumentType("DbClose", 0, "Number", args[0].Kind)
			}
			id := args[0].AsNumber()
			conn, ok := hs.get(id)
			if !ok {
				return ffi.Value{}, ffi.NewRuntimeError("DbClose", "invalid connection handle")
			}
			hs.drop(id)
			if err := conn.Close(); err != nil {
				return ffi.Value{}, ffi.NewRuntimeError("DbClose", err.Error())
			}
			return ffi.Unit, nil
		},
	})
}

func stringArg(name string, args []ffi.Value, i int) (string, *ffi.Error) {
	if args[i].Kind != ffi.KindString {
		return "", ffi.NewArgumentType(name, i, "String", args[i].Kind)
	}
	return args[i].AsString(), nil
}

func prep(name string, hs *handles, args []ffi.Value) (*sql.DB, []any, string, *ffi.Error) {
	if args[0].Kind != ffi.KindNumber {
		return nil, nil, "", ffi.NewArgumentType(name, 0, "Number", args[0].Kind)
	}
	conn, ok := hs.get(args[0].AsNumber())
	if !ok {
		return nil, nil, "", ffi.NewRuntimeError(name, "invalid connection handle")
	}
	text, err := stringArg(name, args, 1)
	if err != nil {
		return nil, nil, "", err
	}
	bound := make([]any, len(args)-2)
	for i, a := range args[2:] {
		bound[i] = toSQLScalar(a)
	}
	return conn, bound, text, nil
}

func toSQLScalar(v ffi.Value) any {
	switch v.Kind {
	case ffi.KindNumber:
		return v.AsNumber()
	case ffi.KindBoolean:
		return v.AsBoolean()
	case ffi.KindString:
		return v.AsString()
	default:
		return nil
	}
}

func toFFIScalar(v any) ffi.Value {
	switch x := v.(type) {
	case nil:
		return ffi.Undefined
	case int64:
		return ffi.Number(float64(x))
	case float64:
		return ffi.Number(x)
	case bool:
		return ffi.Boolean(x)
	case []byte:
		return ffi.String(string(x))
	case string:
		return ffi.String(x)
	default:
		return ffi.String(fmt.Sprintf("%v", x))
	}
}
