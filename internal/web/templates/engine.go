// internal/web/templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Engine compiles and holds templates from all registered Sets.
// It supports a "shared" set (common layout) and per-page clones.
type Engine struct {
	mu     sync.RWMutex
	funcs  template.FuncMap
	base   *template.Template            // compiled from "shared"
	byName map[string]*template.Template // templateName -> compiled set containing it
	Logger *zap.Logger
}

// New creates a new Engine.
func New() *Engine {
	return &Engine{
		funcs:  Funcs(),
		byName: map[string]*template.Template{},
	}
}

// Boot compiles all registered template Sets into the Engine.
// It must be called before Render/RenderSnippet, typically at startup.
func (e *Engine) Boot(logger *zap.Logger) error {
	e.Logger = logger

	sets := All()
	if len(sets) == 0 {
		if e.Logger != nil {
			e.Logger.Warn("no template sets registered")
		}
		return nil
	}

	// 1) Parse shared first
	var shared *Set
	var others []Set
	for i := range sets {
		s := sets[i]
		if s.Name == "shared" {
			shared = &s
		} else {
			others = append(others, s)
		}
	}
	if shared == nil {
		return fmt.Errorf("shared templates not registered")
	}

	core, err := e.parseFS(shared.FS, shared.Patterns...)
	if err != nil {
		return fmt.Errorf("parse shared: %w", err)
	}
	e.base = core

	// 2) For each feature set, compile one clone *per page file*.
	for _, s := range others {
		if err := e.compileSetPerPage(s); err != nil {
			return fmt.Errorf("compile set %q: %w", s.Name, err)
		}
	}
	return nil
}

/*
compileSetPerPage clones the shared base for each page file in the set,
parses all files into that clone, but rewrites non-target files'
`define "content"` to a unique, ignored name. Then it indexes only the
template names that are actually defined by the target file (so the
contact page resolves to the *contact* clone, not the home page's).
*/
func (e *Engine) compileSetPerPage(s Set) error {
	allFiles, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(allFiles) == 0 {
		if e.Logger != nil {
			e.Logger.Warn("no templates matched", zap.String("set", s.Name))
		}
		return nil
	}
	// Stable order
	sort.Strings(allFiles)

	for _, pagePath := range allFiles {
		pageSrcBytes, rerr := fs.ReadFile(s.FS, pagePath)
		if rerr != nil {
			return fmt.Errorf("read %s: %w", pagePath, rerr)
		}
		pageSrc := string(pageSrcBytes)

		// Names owned by this file (entrypoints + partials it defines)
		owned := extractDefineNames(pageSrc)
		delete(owned, "content") // never index the "content" template

		baseClone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}

		// Parse each file; only the target keeps its "content" name.
		for _, p := range allFiles {
			src, rerr := fs.ReadFile(s.FS, p)
			if rerr != nil {
				return fmt.Errorf("read %s: %w", p, rerr)
			}
			text := string(src)
			if p != pagePath {
				text = rewriteContentDefine(text, ignoredContentName(p))
			}
			if _, perr := baseClone.Funcs(e.funcs).Parse(text); perr != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, pagePath, perr)
			}
		}

		// Index only the names *owned* by this file to this clone.
		e.mu.Lock()
		for name := range owned {
			e.byName[name] = baseClone
		}
		e.mu.Unlock()

		if e.Logger != nil {
			e.Logger.Info("template page compiled",
				zap.String("set", s.Name),
				zap.String("page", filepath.Base(pagePath)))
		}
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{\s*define\s+"content"\s*}}`)
	reDefineName    = regexp.MustCompile(`{{\s*define\s+"([^"]+)"`)
)

func rewriteContentDefine(src string, newName string) string {
	// Rename only the template header; {{ end }} remains generic and still closes.
	return reContentDefine.ReplaceAllString(src, fmt.Sprintf(`{{ define "%s" }}`, newName))
}

func ignoredContentName(path string) string {
	// e.g., templates/contact.gohtml -> _content_ignored_contact
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return "_content_ignored_" + base
}

func extractDefineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		if len(g) >= 2 {
			out[g[1]] = struct{}{}
		}
	}
	return out
}

// parseFS reads & parses all files matching patterns into a new root.
// This is used only for the shared set.
func (e *Engine) parseFS(filesystem fs.FS, patterns ...string) (*template.Template, error) {
	root := template.New("root").Funcs(e.funcs)

	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, path := range matches {
			b, err := fs.ReadFile(filesystem, path)
			if err != nil {
				return nil, err
			}
			if _, err = root.Parse(string(b)); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	return root, nil
}

func globAll(filesystem fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// Render executes a top-level template by name. The page is buffered so a
// mid-render failure never leaks half a page to the client.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	e.mu.RLock()
	t, ok := e.byName[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
