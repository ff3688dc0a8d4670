// Package archive implements the zip-based package container (spec.md §6's
// "package archive" external collaborator; SPEC_FULL.md §4.9). It is
// deliberately thin: it never touches engine or scheduler state, only
// yielding named byte blobs and a manifest.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Manifest describes one package's metadata, read from ion.manifest.json
// at the archive root.
type Manifest struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	FormatVersion int      `json:"format_version"`
	MainClass     string   `json:"main_class,omitempty"`
	EntryPoint    string   `json:"entry_point,omitempty"`
	Description   string   `json:"description,omitempty"`
	Author        string   `json:"author,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	FFILibraries  []string `json:"ffi_libraries,omitempty"`
	Exports       []string `json:"exports,omitempty"`
}

// Package is an opened archive: a manifest plus lazy access to its named
// entries.
type Package struct {
	manifest Manifest
	zr       *zip.ReadCloser
	entries  map[string]*zip.File
}

// Open reads path as a zip archive and parses its manifest.
func Open(path string) (*Package, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	pkg := &Package{zr: zr, entries: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		pkg.entries[f.Name] = f
	}

	raw, ok := pkg.readEntry("ion.manifest.json")
	if !ok {
		zr.Close()
		return nil, fmt.Errorf("archive: %s: missing ion.manifest.json", path)
	}
	if err := json.Unmarshal(raw, &pkg.manifest); err != nil {
		zr.Close()
		return nil, fmt.Errorf("archive: %s: invalid manifest: %w", path, err)
	}
	return pkg, nil
}

// Close releases the underlying zip reader.
func (p *Package) Close() error { return p.zr.Close() }

// Manifest returns the parsed package manifest.
func (p *Package) Manifest() Manifest { return p.manifest }

// Function returns the raw bytecode blob for the named function group, if
// present in functions/<name>.ionbc.
func (p *Package) Function(name string) ([]byte, bool) {
	return p.readEntry("functions/" + name + ".ionbc")
}

// Source returns the raw source blob for name, if present.
func (p *Package) Source(name string) ([]byte, bool) {
	return p.readEntry("source/" + name)
}

// FunctionNames lists every function group bundled under functions/.
func (p *Package) FunctionNames() []string {
	var names []string
	for name := range p.entries {
		if strings.HasPrefix(name, "functions/") && strings.HasSuffix(name, ".ionbc") {
			trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "functions/"), ".ionbc")
			names = append(names, trimmed)
		}
	}
	return names
}

// NativeNames lists every native library blob bundled under native/.
func (p *Package) NativeNames() []string {
	var names []string
	for name := range p.entries {
		if strings.HasPrefix(name, "native/") {
			names = append(names, strings.TrimPrefix(name, "native/"))
		}
	}
	return names
}

// ExtractNative writes the native/<name> blob to a file under destDir and
// returns the written path, per the `run` CLI's "extract FFI libraries to
// a temp directory" rule (spec.md §6).
func (p *Package) ExtractNative(name, destDir string) (string, error) {
	f, ok := p.entries["native/"+name]
	if !ok {
		return "", fmt.Errorf("archive: native library %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("archive: open native/%s: %w", name, err)
	}
	defer rc.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create %s: %w", destDir, err)
	}
	destPath := filepath.Join(destDir, filepath.Base(name))
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("archive: create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", destPath, err)
	}
	return destPath, nil
}

func (p *Package) readEntry(name string) ([]byte, bool) {
	f, ok := p.entries[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}
