package indexer

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ModuleResolver maps repository-relative file paths to dotted Python module
// paths.
type ModuleResolver struct {
	cache map[string]moduleInfo
}

type moduleInfo struct {
	modulePath string
	moduleRoot string
}

// NewModuleResolver creates a new resolver.
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{cache: make(map[string]moduleInfo)}
}

// Resolve converts a slash-separated relative path such as
// "src/pkg/util.py" into its module path ("pkg.util") and top-level package
// ("pkg"). A package's __init__.py resolves to the package itself.
func (r *ModuleResolver) Resolve(relPath string) (modulePath, moduleRoot string) {
	if cached, ok := r.cache[relPath]; ok {
		return cached.modulePath, cached.moduleRoot
	}

	p := filepath.ToSlash(relPath)
	p = strings.TrimSuffix(p, path.Ext(p))
	parts := strings.Split(p, "/")

	if len(parts) > 1 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	// src layout: src/pkg/... imports as pkg...
	if len(parts) > 1 && parts[0] == "src" {
		parts = parts[1:]
	}
	// Handle duplicate prefixes (e.g., fisio/fisio -> fisio)
	if len(parts) >= 2 && parts[0] == parts[1] {
		parts = parts[1:]
	}

	modulePath = strings.Join(parts, ".")
	if len(parts) > 0 {
		moduleRoot = parts[0]
	}

	r.cache[relPath] = moduleInfo{modulePath: modulePath, moduleRoot: moduleRoot}
	return modulePath, moduleRoot
}

// Package is a top-level Python package found in a repository.
type Package struct {
	Name       string   `yaml:"name"`
	Dir        string   `yaml:"dir"`
	Submodules []string `yaml:"submodules,omitempty"`
}

// DetectPackages finds the top-level Python packages of the working tree at
// repoPath, looking directly under the root, under src/, and one level into
// a directory that repeats its own name (fisio/fisio). Dir is slash-separated
// and relative to repoPath. Results are sorted by Dir.
func DetectPackages(repoPath string) []Package {
	var packages []Package

	for _, base := range []string{".", "src"} {
		entries, err := os.ReadDir(filepath.Join(repoPath, base))
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			name := entry.Name()
			if skipDir(name) {
				continue
			}

			rel := path.Join(base, name)
			dirPath := filepath.Join(repoPath, filepath.FromSlash(rel))

			if isPackage(dirPath) {
				packages = append(packages, Package{Name: name, Dir: rel, Submodules: detectSubmodules(dirPath)})
				continue
			}

			// Check for nested package (e.g., fisio/fisio)
			nested := filepath.Join(dirPath, name)
			if isPackage(nested) {
				packages = append(packages, Package{Name: name, Dir: path.Join(rel, name), Submodules: detectSubmodules(nested)})
			}
		}
	}

	sort.Slice(packages, func(i, j int) bool { return packages[i].Dir < packages[j].Dir })
	return packages
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "venv", "__pycache__", "build", "dist", "site-packages":
		return true
	}
	return false
}

func isPackage(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "__init__.py"))
	return err == nil
}

func detectSubmodules(packagePath string) []string {
	entries, err := os.ReadDir(packagePath)
	if err != nil {
		return nil
	}

	var submodules []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		subPath := filepath.Join(packagePath, name)
		if isPackage(subPath) {
			submodules = append(submodules, name)
			continue
		}

		// Namespace packages: a directory that directly holds Python files.
		subEntries, _ := os.ReadDir(subPath)
		for _, e := range subEntries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".py" {
				submodules = append(submodules, name)
				break
			}
		}
	}
	return submodules
}
