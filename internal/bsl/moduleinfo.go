package bsl

import (
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// ModuleInfo is a coarse summary of one module file: the compiler
// directives used, whether a variables region is declared, and raw size.
type ModuleInfo struct {
	FilePath     string
	Directives   []string
	HasVariables bool
	Size         int
	Lines        int
}

var (
	directivePattern = regexp.MustCompile(`&([^\n]+)`)
	variablesPattern = regexp.MustCompile(`(?is)#Область\s+ОбластьПеременных(.*?)#КонецОбласти`)
)

// ExtractModuleInfo summarizes a module file without segmenting it.
// Returns the zero value on read failure.
func ExtractModuleInfo(path string) ModuleInfo {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("bsl.info_failed", "path", path, "err", err)
		return ModuleInfo{}
	}
	content := strings.TrimPrefix(string(raw), "\ufeff")

	var directives []string
	for _, m := range directivePattern.FindAllStringSubmatch(content, -1) {
		directives = append(directives, m[1])
	}

	hasVars := false
	if m := variablesPattern.FindStringSubmatch(content); m != nil {
		hasVars = strings.TrimSpace(m[1]) != ""
	}

	return ModuleInfo{
		FilePath:     path,
		Directives:   directives,
		HasVariables: hasVars,
		Size:         len(content),
		Lines:        strings.Count(content, "\n"),
	}
}
