package syntax

import (
	"maps"
	"sync"
	"unsafe"

	forest "github.com/alexaandru/go-sitter-forest"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Grammar names understood by the host.
const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// languageFuncs maps grammar names to their tree-sitter GetLanguage functions.
// Grammars not listed here are looked up in the forest registry.
var languageFuncs = map[string]func() unsafe.Pointer{
	LangJavaScript: javascript.GetLanguage,
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
}

// DefaultExtensions maps file extensions to grammar names.
// JavaScript files go through the javascript grammar, which accepts JSX.
var DefaultExtensions = map[string]string{
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

// MergeExtensions returns DefaultExtensions overlaid with overrides. Grammar
// names outside the built-in three are resolved through the forest registry.
func MergeExtensions(overrides map[string]string) map[string]string {
	merged := maps.Clone(DefaultExtensions)
	maps.Copy(merged, overrides)

	return merged
}

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the given name, or nil if not supported.
func GetLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	var lang *sitter.Language

	if fn, ok := languageFuncs[name]; ok {
		lang = sitter.NewLanguage(fn())
	} else {
		lang = forestLanguage(name)
	}

	if lang == nil {
		return nil
	}

	languageCache.Store(name, lang)

	return lang
}

// forestLanguage resolves a grammar through the forest registry, which panics on unknown names.
func forestLanguage(name string) (lang *sitter.Language) {
	defer func() {
		if recover() != nil {
			lang = nil
		}
	}()

	return forest.GetLanguage(name)
}
