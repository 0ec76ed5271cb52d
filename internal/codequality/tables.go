package codequality

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var languageByExtension = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++ Header",
	".hpp":   "C++ Header",
	".cs":    "C#",
	".go":    "Go",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".rs":    "Rust",
	".scala": "Scala",
	".sql":   "SQL",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".sass":  "Sass",
	".less":  "Less",
	".md":    "Markdown",
	".json":  "JSON",
	".xml":   "XML",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
	".sh":    "Shell",
	".bash":  "Bash",
	".r":     "R",
	".m":     "MATLAB",
	".vim":   "Vimscript",
}

var ignoredExtensions = set(
	".pyc", ".pyo", ".pyd", ".so", ".dll", ".dylib", ".exe",
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".bmp",
	".mp3", ".mp4", ".avi", ".mov", ".wav",
	".zip", ".tar", ".gz", ".rar", ".7z",
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".lock", ".log", ".tmp", ".cache",
)

var ignoredDirs = set(
	"__pycache__", ".git", ".svn", ".hg", "node_modules",
	"venv", "env", "ENV", ".venv", "virtualenv",
	"build", "dist", ".egg-info", "target",
	".pytest_cache", ".mypy_cache", ".tox",
	"coverage", ".coverage", "htmlcov",
)

// LanguageForExtension maps a lower-cased extension (with dot) to a language name
func LanguageForExtension(ext string) (string, bool) {
	lang, ok := languageByExtension[strings.ToLower(ext)]
	return lang, ok
}

func IgnoredExtension(ext string) bool {
	return ignoredExtensions[strings.ToLower(ext)]
}

// IgnoredDir matches dependency, build and VCS directories, including package.egg-info
func IgnoredDir(name string) bool {
	return ignoredDirs[name] || strings.HasSuffix(name, ".egg-info")
}

// ErrBinaryContent is returned for files containing NUL bytes
var ErrBinaryContent = errors.New("binary content")

// Decode returns data as text, reading it as Latin-1 when it is not valid UTF-8
func Decode(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinaryContent
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return charmap.ISO8859_1.NewDecoder().String(string(data))
}

// CountLines counts lines the way a line iterator does: a trailing line without
// a newline still counts, an empty file has none.
func CountLines(text string) int64 {
	if text == "" {
		return 0
	}
	n := int64(strings.Count(text, "\n"))
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
