package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/plugins"
)

// loadSourceFiles reads a file or a directory tree, keeping only extensions
// the plugin declares (or the configured override when present).
func loadSourceFiles(path string, src plugins.SourcePlugin, extensions []string) ([]plugins.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	allowed := extensionSet(src, extensions)

	var files []plugins.SourceFile
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, plugins.SourceFile{Path: path, Content: data})
		return files, nil
	}

	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		if len(allowed) == 0 || allowed[strings.ToLower(filepath.Ext(p))] {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			files = append(files, plugins.SourceFile{Path: p, Content: data})
		}
		return nil
	})
	return files, err
}

func extensionSet(src plugins.SourcePlugin, override []string) map[string]bool {
	exts := override
	if exts == nil {
		if fep, ok := src.(plugins.FileExtensionsProvider); ok {
			exts = fep.FileExtensions()
		}
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

// WriteDiagrams writes each diagram to <dir>/<title>.puml and returns the
// written paths, sorted.
func WriteDiagrams(dir string, diagrams map[string][]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	titles := make([]string, 0, len(diagrams))
	for t := range diagrams {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	paths := make([]string, 0, len(titles))
	for _, title := range titles {
		path := filepath.Join(dir, sanitizeFilename(title)+".puml")
		content := strings.Join(diagrams[title], "\n") + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// sanitizeFilename keeps titles filesystem-safe without losing uniqueness
// for the usual module_Type_method shape.
func sanitizeFilename(title string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, title)
}
