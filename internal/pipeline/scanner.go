package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
)

// ErrDirectoryNotFound is returned when the input root is missing, is not a
// directory, or cannot be listed.
var ErrDirectoryNotFound = errors.New("directory not found")

// Discover walks root depth-first and returns the absolute path of every
// regular file, children in directory-listing order.
//
// Symbolic links are followed. A directory whose resolved path is already
// on the current descent path is a cycle and is not entered again; the same
// directory reached through an unrelated link is walked once per route.
// Problems below the root are logged and skipped.
func Discover(root string, log logrus.FieldLogger) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, root, err)
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, root, err)
	}

	var files []string

	// Worklist of paths still to visit, each with the resolved directories
	// above it. Children are pushed in reverse so they pop in listing order.
	type item struct {
		path      string
		ancestors []string
	}
	stack := make([]item, 0, len(entries))
	push := func(dir string, ancestors []string, children []os.DirEntry) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{filepath.Join(dir, children[i].Name()), ancestors})
		}
	}
	push(abs, []string{resolved}, entries)

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		path := it.path

		info, err := os.Stat(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skip unreadable entry")
			continue
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				files = append(files, path)
			} else {
				log.WithField("path", path).Debug("skip non-regular file")
			}
			continue
		}

		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skip unresolvable directory")
			continue
		}
		if slices.Contains(it.ancestors, target) {
			log.WithFields(logrus.Fields{"path": path, "target": target}).Debug("skip symlink cycle")
			continue
		}

		children, err := os.ReadDir(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skip unreadable directory")
			continue
		}
		push(path, append(slices.Clip(it.ancestors), target), children)
	}

	return files, nil
}
