package importmodel

import (
	"strings"
)

// Kind tags the variant held by an Import.
type Kind uint8

const (
	// KindBuiltIn is a platform built-in module such as "fs" or "node:path".
	KindBuiltIn Kind = iota + 1
	// KindInternal is a relative import of a module in the same package.
	KindInternal
	// KindExternal is an import of a named package.
	KindExternal
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBuiltIn:
		return "builtin"
	case KindInternal:
		return "internal"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Import is a classified module reference. Exactly one variant is populated,
// selected by Kind; use the BuiltIn, Internal and External constructors.
type Import struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Name is set for KindBuiltIn.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// RelativePath is set for KindInternal.
	RelativePath string `json:"relative_path,omitempty" yaml:"relative_path,omitempty"`

	// PackageName, SubPath and TypeOnly are set for KindExternal.
	PackageName string `json:"package,omitempty"   yaml:"package,omitempty"`
	SubPath     string `json:"sub_path,omitempty"  yaml:"sub_path,omitempty"`
	TypeOnly    bool   `json:"type_only,omitempty" yaml:"type_only,omitempty"`
}

// BuiltIn returns the built-in variant.
func BuiltIn(name string) Import {
	return Import{Kind: KindBuiltIn, Name: name}
}

// Internal returns the internal variant.
func Internal(relativePath string) Import {
	return Import{Kind: KindInternal, RelativePath: relativePath}
}

// External returns the external variant.
func External(packageName, subPath string, typeOnly bool) Import {
	return Import{Kind: KindExternal, PackageName: packageName, SubPath: subPath, TypeOnly: typeOnly}
}

// FullSpecifier renders the import as it would be written in source, without quotes.
func (imp Import) FullSpecifier() string {
	switch imp.Kind {
	case KindBuiltIn:
		return imp.Name
	case KindInternal:
		return imp.RelativePath
	case KindExternal:
		if imp.SubPath == "" {
			return imp.PackageName
		}

		return imp.PackageName + "/" + imp.SubPath
	default:
		return ""
	}
}

const (
	relativeMarker = "."
	scopeMarker    = "@"
	pathSeparator  = "/"
	quoteChars     = "'\"`"
)

// Classify decides whether raw names a built-in, internal or external module.
// Checks run in a fixed order: built-in, then relative path, then scoped
// package, then bare package.
func Classify(raw string, typeOnly bool) Import {
	spec := Unquote(raw)

	if IsBuiltin(spec) {
		return BuiltIn(spec)
	}

	if strings.HasPrefix(spec, relativeMarker) {
		return Internal(spec)
	}

	segments := strings.Split(spec, pathSeparator)

	if strings.HasPrefix(spec, scopeMarker) && len(segments) > 1 {
		return External(segments[0]+pathSeparator+segments[1], strings.Join(segments[2:], pathSeparator), typeOnly)
	}

	return External(segments[0], strings.Join(segments[1:], pathSeparator), typeOnly)
}

// Unquote strips every quote character from the specifier text.
func Unquote(raw string) string {
	if !strings.ContainsAny(raw, quoteChars) {
		return raw
	}

	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}

		return r
	}, raw)
}
