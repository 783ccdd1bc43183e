// Package inputs turns command line arguments into the list of mzML
// files to process and derives the output path of each.
package inputs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrNoInputs indicates that an argument matched no mzML files
	ErrNoInputs = errors.New("no mzML files found")
	// ErrNotFound indicates a path that does not exist
	ErrNotFound = errors.New("input not found")
	// ErrNotMzML indicates a file without .mzML or .mzML.gz extension
	ErrNotMzML = errors.New("not an mzML file")
)

var extensions = []string{".mzml.gz", ".mzml"}

// OutputExt is the extension of derived output files
const OutputExt = ".tsv"

// IsMzML reports whether name has an .mzML or .mzML.gz extension
// (case insensitive)
func IsMzML(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// BaseName returns the file name of path without its mzML extension
func BaseName(path string) string {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Expand returns the sorted mzML files an argument refers to. The
// argument may be a file, a directory or a wildcard pattern. Directories
// are searched for mzML files, including subdirectories when recurse is
// set.
func Expand(arg string, recurse bool) ([]string, error) {
	if hasMeta(arg) {
		return expandPattern(arg, recurse)
	}
	info, err := os.Stat(arg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
		}
		return nil, err
	}
	if info.IsDir() {
		files, err := scanDir(arg, recurse)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w in directory %s", ErrNoInputs, arg)
		}
		return files, nil
	}
	if !IsMzML(arg) {
		return nil, fmt.Errorf("%w: %s", ErrNotMzML, arg)
	}
	return []string{arg}, nil
}

// ExpandAll expands every argument and removes duplicates
func ExpandAll(args []string, recurse bool) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, arg := range args {
		expanded, err := Expand(arg, recurse)
		if err != nil {
			return nil, err
		}
		for _, f := range expanded {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

func scanDir(dir string, recurse bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recurse {
				return filepath.SkipDir
			}
			return nil
		}
		if IsMzML(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// patternRoot returns the directory part of a pattern before the first
// path segment with a wildcard
func patternRoot(pattern string) string {
	segments := strings.Split(pattern, "/")
	var fixed []string
	for _, s := range segments {
		if hasMeta(s) {
			break
		}
		fixed = append(fixed, s)
	}
	if len(fixed) == 0 {
		return "."
	}
	root := strings.Join(fixed, "/")
	if root == "" {
		return "/"
	}
	return filepath.FromSlash(root)
}

func expandPattern(arg string, recurse bool) ([]string, error) {
	pattern := filepath.ToSlash(filepath.Clean(arg))
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid wildcard %q: %w", arg, err)
	}
	root := patternRoot(pattern)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, arg)
	}

	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root || !g.Match(filepath.ToSlash(path)) {
			return nil
		}
		if d.IsDir() {
			sub, err := scanDir(path, recurse)
			if err != nil {
				return err
			}
			for _, f := range sub {
				add(f)
			}
			return nil
		}
		if IsMzML(d.Name()) {
			add(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w matching %s", ErrNoInputs, arg)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath derives the output file of input. With a single input the
// output option may name the output file or an existing directory. In all
// other cases the output is written next to the input.
func OutputPath(input, output string, single bool) string {
	name := BaseName(input) + OutputExt
	if single && output != "" {
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			return filepath.Join(output, name)
		}
		return output
	}
	return filepath.Join(filepath.Dir(input), name)
}
