package interp

import (
	"encoding/base64"
	"strings"

	"ward/internal/ast"
	"ward/internal/object"
	"ward/internal/runtime"
)

// languageAliases maps the accepted language spellings to canonical names.
// Assets and interpolation keys always carry the canonical name.
var languageAliases = map[string]string{
	"javascript": "javascript",
	"js":         "javascript",
	"node":       "javascript",
	"python":     "python",
	"py":         "python",
	"shell":      "shell",
	"sh":         "shell",
	"bash":       "shell",
	"zsh":        "shell",
	"powershell": "powershell",
	"ps1":        "powershell",
	"ruby":       "ruby",
	"rb":         "ruby",
	"perl":       "perl",
	"pl":         "perl",
	"php":        "php",
	"lua":        "lua",
	"go":         "go",
	"golang":     "go",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"java":       "java",
	"csharp":     "csharp",
	"c#":         "csharp",
	"rust":       "rust",
	"sql":        "sql",
	"html":       "html",
	"css":        "css",
	"xml":        "xml",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"toml":       "toml",
	"markdown":   "markdown",
	"md":         "markdown",
	"text":       "text",
	"txt":        "text",
	"hex":        "hex",
	"assembly":   "assembly",
	"asm":        "assembly",
	"binary":     "binary",
	"bin":        "binary",
}

// CanonicalLanguage normalizes an embed language name or reports that the
// name is unknown.
func CanonicalLanguage(name string) (string, bool) {
	canonical, ok := languageAliases[strings.ToLower(name)]
	return canonical, ok
}

const embedPreviewLimit = 80

// execEmbed stores an embedded asset under its canonical language. String
// content is interpolated; bytes content is stored base64-encoded with a
// content_encoding marker in the metadata.
func (i *Interpreter) execEmbed(s *ast.EmbedStatement, env *object.Environment) object.Object {
	language, known := CanonicalLanguage(s.Language)
	if !known {
		return object.Errorf(object.EmbedLanguageErrorKind,
			"unknown embed language: %s", s.Language).At(s.Token.Line)
	}
	content, err := i.eval(s.Content, env)
	if err != nil {
		return err.At(s.Token.Line)
	}
	metadata := map[string]interface{}{}
	if s.Metadata != nil {
		raw, err := i.eval(s.Metadata, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		switch m := raw.(type) {
		case *object.None:
		case *object.Dict:
			for _, pair := range m.Pairs() {
				metadata[pair.Key.Inspect()] = Plain(pair.Value)
			}
		default:
			return object.Errorf(object.RuntimeErrorKind,
				"EMBED metadata must evaluate to a dictionary").At(s.Token.Line)
		}
	}
	var stored string
	var originalLength int
	encoded := false
	switch c := content.(type) {
	case *object.String:
		stored = i.interpolate(c.Value)
		originalLength = len(stored)
	case *object.Bytes:
		originalLength = len(c.Value)
		stored = base64.StdEncoding.EncodeToString(c.Value)
		encoded = true
		if _, present := metadata["content_encoding"]; !present {
			metadata["content_encoding"] = "base64"
		}
	default:
		return object.Errorf(object.RuntimeErrorKind,
			"EMBED content must evaluate to str or bytes").At(s.Token.Line)
	}
	i.ctx.SetEmbeddedAsset(s.Name, runtime.EmbeddedAsset{
		Language: language,
		Content:  stored,
		Metadata: metadata,
	})
	details := map[string]interface{}{
		"language": language,
		"metadata": metadata,
		"length":   originalLength,
	}
	if encoded {
		details["encoding"] = "base64"
	}
	if preview := strings.TrimSpace(stored); preview != "" {
		if len(preview) > embedPreviewLimit {
			preview = preview[:embedPreviewLimit] + "…"
		}
		details["preview"] = preview
	}
	i.ctx.AddAction(runtime.Action{
		Kind:    "embed",
		Summary: "Embed " + s.Name + " (" + language + ")",
		Details: details,
		Line:    s.Token.Line,
	})
	return nil
}
