// Package bsl segments 1C:Enterprise (BSL) module source into method
// records and extracts typed references to configuration objects. It is
// deliberately not a parser: declarations are recognized by a
// declarative pattern, and malformed source degrades to false negatives.
package bsl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MethodKind distinguishes the two declaration kinds and the
// whole-module fallback record.
type MethodKind string

const (
	KindProcedure MethodKind = "Процедура"
	KindFunction  MethodKind = "Функция"
	// KindModule marks the single fallback record emitted for a
	// non-empty module with no recognizable declarations.
	KindModule MethodKind = "Module"
)

// MethodRecord is one segmented procedure or function, or the
// whole-module fallback. Immutable once produced.
type MethodRecord struct {
	Kind      MethodKind
	Name      string
	Params    string
	Signature string
	Export    bool
	Code      string
	Body      string
	Comments  []string
	FilePath  string
}

// Conditional-compilation directives are stripped before matching so
// declarations inside #Если branches do not confuse boundary detection.
// Each pattern consumes through end-of-line, nothing else.
var condDirectives = []*regexp.Regexp{
	regexp.MustCompile(`(?i)#Если[^\n]*\n`),
	regexp.MustCompile(`(?i)#ИначеЕсли[^\n]*\n`),
	regexp.MustCompile(`(?i)#Иначе[^\n]*\n`),
	regexp.MustCompile(`(?i)#КонецЕсли[^\n]*\n`),
}

// declPattern matches one method declaration: optional &-decorator
// lines, the kind keyword, a Unicode identifier, a lazily matched
// parameter list, an optional export marker, then the body up to the
// terminator keyword. RE2 has no lookahead, so unlike the classic
// formulation the terminator is consumed; the reconstructed code is cut
// at the body end (see submatch indexing in Segment). \w is ASCII-only
// in RE2, hence the explicit Unicode identifier class.
var declPattern = regexp.MustCompile(
	`(?is)(?:&[^\n]*\n)*\s*(Процедура|Функция)\s+([\p{L}\p{N}_]+)\s*\((.*?)\)\s*(Экспорт)?\s*\n(.*?)\n\s*Конец(?:Процедуры|Функции)`)

// ParseModule reads and segments one module file. An unreadable file is
// logged and yields an empty list; the caller continues scanning.
func ParseModule(path string) []MethodRecord {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("bsl.read_failed", "path", path, "err", err)
		return nil
	}
	content := strings.TrimPrefix(string(raw), "\ufeff")
	return Segment(content, path)
}

// Segment splits module text into an ordered list of method records,
// or one whole-module fallback record when nothing matches.
func Segment(content, filePath string) []MethodRecord {
	clean := content
	for _, re := range condDirectives {
		clean = re.ReplaceAllString(clean, "")
	}

	var records []MethodRecord
	for _, loc := range declPattern.FindAllStringSubmatchIndex(clean, -1) {
		kind := normalizeKind(clean[loc[2]:loc[3]])
		name := clean[loc[4]:loc[5]]
		params := strings.TrimSpace(clean[loc[6]:loc[7]])
		export := loc[8] >= 0
		body := clean[loc[10]:loc[11]]

		// Matched span up to the body end plus a synthesized terminator,
		// so the persisted code is itself a complete declaration.
		code := clean[loc[0]:loc[11]] + "\n" + terminatorFor(kind) + ";"

		records = append(records, MethodRecord{
			Kind:      kind,
			Name:      name,
			Params:    params,
			Signature: fmt.Sprintf("%s %s(%s)", kind, name, params),
			Export:    export,
			Code:      code,
			Body:      body,
			Comments:  leadingComments(clean, loc[0]),
			FilePath:  filePath,
		})
	}

	if len(records) == 0 && strings.TrimSpace(content) != "" {
		stem := fileStem(filePath)
		records = append(records, MethodRecord{
			Kind:      KindModule,
			Name:      stem,
			Signature: "Модуль " + stem,
			Code:      content,
			Body:      content,
			FilePath:  filePath,
		})
	}
	return records
}

// leadingComments collects the // lines immediately preceding a match,
// scanning backward over at most 10 lines. Blank and decorator lines
// are skipped; any other line stops the scan. The comment leader and
// surrounding whitespace are stripped.
func leadingComments(clean string, matchStart int) []string {
	lines := strings.Split(clean[:matchStart], "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	var comments []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, "//"):
			comments = append([]string{strings.TrimSpace(line[2:])}, comments...)
		case line != "" && !strings.HasPrefix(line, "&"):
			return comments
		}
	}
	return comments
}

func normalizeKind(matched string) MethodKind {
	if strings.EqualFold(matched, string(KindFunction)) {
		return KindFunction
	}
	return KindProcedure
}

func terminatorFor(kind MethodKind) string {
	if kind == KindFunction {
		return "КонецФункции"
	}
	return "КонецПроцедуры"
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
