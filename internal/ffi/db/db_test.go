package db

import (
	"strings"
	"testing"

	"github.com/ion-lang/ion/internal/ffi"
	"github.com/ion-lang/ion/internal/value"
)

func newTestRegistry() *ffi.Registry {
	r := ffi.NewRegistry()
	Register(r)
	return r
}

func isErrorAtomContaining(v value.Value, substr string) bool {
	return v.Kind == value.KindAtom && strings.HasPrefix(v.AsText(), "Error:") && strings.Contains(v.AsText(), substr)
}

func TestDbOpenRejectsUnsupportedDriver(t *testing.T) {
	r := newTestRegistry()
	got := r.Dispatch("DbOpen", []value.Value{value.String("oracle"), value.String("dsn")})
	if !isErrorAtomContaining(got, "unsupported driver") {
		t.Errorf("DbOpen(oracle, ...) = %v, want an Error atom mentioning an unsupported driver", got)
	}
}

func TestDbCloseRejectsUnknownHandle(t *testing.T) {
	r := newTestRegistry()
	got := r.Dispatch("DbClose", []value.Value{value.Number(999)})
	if !isErrorAtomContaining(got, "invalid connection handle") {
		t.Errorf("DbClose(999) = %v, want an Error atom mentioning an invalid handle", got)
	}
}

func TestDbQueryRejectsUnknownHandle(t *testing.T) {
	r := newTestRegistry()
	got := r.Dispatch("DbQuery", []value.Value{value.Number(999), value.String("SELECT 1")})
	if !isErrorAtomContaining(got, "invalid connection handle") {
		t.Errorf("DbQuery on an unknown handle = %v, want an Error atom", got)
	}
}

func TestDbExecRejectsUnknownHandle(t *testing.T) {
	r := newTestRegistry()
	got := r.Dispatch("DbExec", []value.Value{value.Number(999), value.String("DELETE FROM t")})
	if !isErrorAtomContaining(got, "invalid connection handle") {
		t.Errorf("DbExec on an unknown handle = %v, want an Error atom", got)
	}
}

func TestDbCloseWrongArgTypeProducesErrorAtom(t *testing.T) {
	r := newTestRegistry()
	got := r.Dispatch("DbClose", []value.Value{value.String("not-a-handle")})
	if got.Kind != value.KindAtom || !strings.HasPrefix(got.AsText(), "Error:") {
		t.Errorf("DbClose(String) = %v, want an Error atom", got)
	}
}
