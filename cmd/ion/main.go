// Command ion is the VM's command-line front end: run/info/disasm
// subcommands over a .ionbc bytecode file or a .ionpkg archive
// (SPEC_FULL.md §4.10).
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/ion-lang/ion/internal/archive"
	"github.com/ion-lang/ion/internal/bytecode"
	"github.com/ion-lang/ion/internal/disasm"
	"github.com/ion-lang/ion/internal/ffi"
	"github.com/ion-lang/ion/internal/ffi/db"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/resolver"
	"github.com/ion-lang/ion/internal/scheduler"
	"github.com/ion-lang/ion/internal/value"
	"github.com/ion-lang/ion/version"
)

func main() {
	app := &cli.Command{
		Name:  "ion",
		Usage: "a concurrency-first virtual machine modeled on the Erlang execution model",
		Commands: []*cli.Command{
			runCommand,
			infoCommand,
			disasmCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "version", Aliases: []string{"v"}, Usage: "print the VM version and exit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version.Version())
				return nil
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ion: %v\n", err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "load and execute a bytecode file or package archive",
	ArgsUsage: "<pkg> [args...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable [VM DEBUG] step tracing"},
		&cli.IntFlag{Name: "reductions", Usage: "per-slice reduction budget", Value: scheduler.DefaultReductionLimit},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: ion run <pkg> [args...]")
		}
		programArgs := cmd.Args().Slice()[1:]

		fns, registry, entryPoint, err := loadProgram(path)
		if err != nil {
			return err
		}
		resolver.Resolve(fns, registry)

		mainFn, err := resolveEntry(fns, entryPoint)
		if err != nil {
			return err
		}

		args := make([]value.Value, len(programArgs))
		for i, a := range programArgs {
			args[i] = value.Atom(a)
		}

		s := scheduler.New(registry)
		s.ReductionLimit = cmd.Int("reductions")
		s.SetDebug(cmd.Bool("debug"))
		s.SpawnMain(mainFn, args)
		s.Run()

		if f := s.Engine.LastFault; f != nil {
			return fmt.Errorf("process %d: %s", f.PID, f.Message)
		}
		return nil
	},
}

// resolveEntry implements spec.md §6's entry-point rule: the manifest's
// explicit entry point if set, else the first arity-0 function named
// "main", else an error.
func resolveEntry(fns []*process.Function, entryPoint string) (*process.Function, error) {
	if entryPoint != "" {
		for _, fn := range fns {
			if fn.Name == entryPoint {
				return fn, nil
			}
		}
		return nil, fmt.Errorf("entry point %q not found", entryPoint)
	}
	for _, fn := range fns {
		if fn.Name == "main" && fn.Arity == 0 {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("no entry point set and no arity-0 function named \"main\"")
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "print a bytecode file or archive's manifest and function table",
	ArgsUsage: "<path>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: ion info <path>")
		}

		fns, _, _, err := loadProgram(path)
		if err != nil {
			return err
		}
		if pkg, perr := archive.Open(path); perr == nil {
			defer pkg.Close()
			m := pkg.Manifest()
			fmt.Printf("package %s %s (format %d)\n", m.Name, m.Version, m.FormatVersion)
			if m.EntryPoint != "" {
				fmt.Printf("entry point: %s\n", m.EntryPoint)
			}
			if len(m.Dependencies) > 0 {
				fmt.Printf("dependencies: %v\n", m.Dependencies)
			}
			if len(m.FFILibraries) > 0 {
				fmt.Printf("ffi libraries: %v\n", m.FFILibraries)
			}
			if len(m.Exports) > 0 {
				fmt.Printf("exports: %v\n", m.Exports)
			}
		}
		fmt.Printf("%d function(s):\n", len(fns))
		for _, fn := range fns {
			fmt.Printf("  %s\n", fn.Label())
		}
		return nil
	},
}

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "disassemble a bytecode file or archive to text",
	ArgsUsage: "<path>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: ion disasm <path>")
		}
		fns, _, _, err := loadProgram(path)
		if err != nil {
			return err
		}
		fmt.Print(disasm.Functions(fns))
		return nil
	},
}

// loadProgram accepts either a raw .ionbc container or a .ionpkg zip
// archive, returning its decoded functions, the FFI registry its manifest
// requests (db is wired in only when named, per SPEC_FULL.md §4.12), and
// its manifest entry point (empty for a bare bytecode file, which falls
// back to resolveEntry's "main/0" rule).
func loadProgram(path string) ([]*process.Function, *ffi.Registry, string, error) {
	registry := ffi.NewBaseRegistry(os.Stdout, os.Stderr)

	pkg, err := archive.Open(path)
	if err == nil {
		defer pkg.Close()
		manifest := pkg.Manifest()
		for _, lib := range manifest.FFILibraries {
			if lib == "db" {
				db.Register(registry)
			}
		}

		if natives := pkg.NativeNames(); len(natives) > 0 {
			// Each run gets its own extraction directory so concurrent `ion
			// run` invocations over the same archive never collide on a
			// native library's extracted path (spec.md §6).
			destDir := filepath.Join(os.TempDir(), "ion-native-"+uuid.NewString())
			for _, name := range natives {
				if _, extractErr := pkg.ExtractNative(name, destDir); extractErr != nil {
					return nil, nil, "", fmt.Errorf("extract native %s: %w", name, extractErr)
				}
			}
		}

		var fns []*process.Function
		for _, name := range pkg.FunctionNames() {
			blob, _ := pkg.Function(name)
			group, derr := bytecode.DecodeContainer(bytes.NewReader(blob))
			if derr != nil {
				return nil, nil, "", fmt.Errorf("decode %s: %w", name, derr)
			}
			fns = append(fns, group...)
		}
		return fns, registry, manifest.EntryPoint, nil
	}

	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, "", fmt.Errorf("open %s: %w", path, openErr)
	}
	defer f.Close()

	fns, derr := bytecode.DecodeContainer(f)
	if derr != nil {
		return nil, nil, "", fmt.Errorf("decode %s: %w", path, derr)
	}
	return fns, registry, "", nil
}

