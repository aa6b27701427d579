package bsl

import "regexp"

// Reference is one typed mention of a configuration object found in
// code, e.g. Справочники.Товары -> (Catalogs, Товары).
type Reference struct {
	Type string
	Name string
}

// collectionTypes maps the localized collection keywords to canonical
// object types. Lookup is exact-case: a keyword matched in any other
// casing resolves to no type and the pair is dropped.
var collectionTypes = map[string]string{
	"Документы":           "Documents",
	"Справочники":         "Catalogs",
	"РегистрыСведений":    "InformationRegisters",
	"РегистрыНакопления":  "AccumulationRegisters",
	"РегистрыБухгалтерии": "AccountingRegisters",
	"ПланыСчетов":         "ChartsOfAccounts",
	"Перечисления":        "Enums",
	"ОбщиеМодули":         "CommonModules",
	"Обработки":           "DataProcessors",
	"Отчеты":              "Reports",
}

// RE2's \b is ASCII-defined and never fires before a Cyrillic letter,
// so the word boundary is an explicit not-identifier-or-start guard.
var refPattern = regexp.MustCompile(
	`(?i)(?:^|[^\p{L}\p{N}_])(Документы|Справочники|РегистрыСведений|РегистрыНакопления|` +
		`РегистрыБухгалтерии|ПланыСчетов|Перечисления|ОбщиеМодули|` +
		`Обработки|Отчеты)\.([\p{L}\p{N}_]+)`)

// ExtractReferences scans code for typed object mentions, deduplicated
// by (type, name) in first-seen order.
func ExtractReferences(code string) []Reference {
	var refs []Reference
	seen := make(map[Reference]bool)
	for _, m := range refPattern.FindAllStringSubmatch(code, -1) {
		objType, ok := collectionTypes[m[1]]
		if !ok {
			continue
		}
		ref := Reference{Type: objType, Name: m[2]}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}
