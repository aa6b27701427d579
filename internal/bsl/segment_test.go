package bsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const twoMethods = `// Проверяет заполнение реквизитов.
Процедура ПроверитьЗаполнение(Отказ) Экспорт
	Если Отказ Тогда
		Возврат;
	КонецЕсли;
КонецПроцедуры

Функция ПолучитьСумму(Документ)
	Возврат Документ.Сумма;
КонецФункции
`

func TestSegmentTwoMethods(t *testing.T) {
	records := Segment(twoMethods, "Справочники/Товары/МодульОбъекта.bsl")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	p := records[0]
	if p.Kind != KindProcedure {
		t.Errorf("kind: expected procedure, got %s", p.Kind)
	}
	if p.Name != "ПроверитьЗаполнение" {
		t.Errorf("name: got %s", p.Name)
	}
	if p.Params != "Отказ" {
		t.Errorf("params: got %q", p.Params)
	}
	if !p.Export {
		t.Error("expected export flag")
	}
	if len(p.Comments) != 1 || p.Comments[0] != "Проверяет заполнение реквизитов." {
		t.Errorf("comments: got %v", p.Comments)
	}
	if p.Signature != "Процедура ПроверитьЗаполнение(Отказ)" {
		t.Errorf("signature: got %q", p.Signature)
	}

	f := records[1]
	if f.Kind != KindFunction {
		t.Errorf("kind: expected function, got %s", f.Kind)
	}
	if f.Export {
		t.Error("function should not be export")
	}
	if !strings.Contains(f.Body, "Возврат Документ.Сумма;") {
		t.Errorf("body: got %q", f.Body)
	}
}

func TestSegmentReconstructedCodeReMatches(t *testing.T) {
	records := Segment(twoMethods, "m.bsl")
	for _, r := range records {
		again := Segment(r.Code, "m.bsl")
		if len(again) != 1 {
			t.Fatalf("reconstructed code of %s did not re-segment: got %d records", r.Name, len(again))
		}
		if again[0].Name != r.Name || again[0].Kind != r.Kind {
			t.Errorf("re-segmented %s/%s, expected %s/%s", again[0].Kind, again[0].Name, r.Kind, r.Name)
		}
	}
}

func TestSegmentTerminatorSynthesis(t *testing.T) {
	records := Segment(twoMethods, "m.bsl")
	if !strings.HasSuffix(records[0].Code, "КонецПроцедуры;") {
		t.Errorf("procedure code suffix: %q", records[0].Code[len(records[0].Code)-40:])
	}
	if !strings.HasSuffix(records[1].Code, "КонецФункции;") {
		t.Errorf("function code suffix: %q", records[1].Code[len(records[1].Code)-40:])
	}
}

func TestSegmentStripsConditionalDirectives(t *testing.T) {
	src := "#Если Сервер Тогда\n" +
		"// серверная реализация\n" +
		"Процедура НаСервере()\n" +
		"\tА = 1;\n" +
		"КонецПроцедуры\n" +
		"#КонецЕсли\n"
	records := Segment(src, "m.bsl")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if strings.Contains(r.Code, "#Если") || strings.Contains(r.Code, "#КонецЕсли") {
		t.Errorf("directive leaked into code: %q", r.Code)
	}
	for _, c := range r.Comments {
		if strings.Contains(c, "#") {
			t.Errorf("directive leaked into comments: %v", r.Comments)
		}
	}
	if len(r.Comments) != 1 || r.Comments[0] != "серверная реализация" {
		t.Errorf("comments: got %v", r.Comments)
	}
}

func TestSegmentDecoratorLines(t *testing.T) {
	src := "// обработчик команды\n" +
		"&НаКлиенте\n" +
		"Процедура ОткрытьФорму(Команда)\n" +
		"\tОткрытьФорму(\"Общая\");\n" +
		"КонецПроцедуры\n"
	records := Segment(src, "Форма.bsl")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if !strings.Contains(r.Code, "&НаКлиенте") {
		t.Error("decorator line missing from code")
	}
	// The comment scan skips the decorator line and still finds the comment.
	if len(r.Comments) != 1 || r.Comments[0] != "обработчик команды" {
		t.Errorf("comments: got %v", r.Comments)
	}
}

func TestSegmentCommentScanStopsAtCode(t *testing.T) {
	src := "А = 1;\n" +
		"// только этот комментарий\n" +
		"Процедура Фоо()\n" +
		"\tБ = 2;\n" +
		"КонецПроцедуры\n"
	records := Segment(src, "m.bsl")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].Comments) != 1 || records[0].Comments[0] != "только этот комментарий" {
		t.Errorf("comments: got %v", records[0].Comments)
	}
}

func TestSegmentFallbackRecord(t *testing.T) {
	src := "Перем ОбщийКэш;\nА = 1;\n"
	records := Segment(src, "Справочники/Товары/МодульМенеджера.bsl")
	if len(records) != 1 {
		t.Fatalf("expected 1 fallback record, got %d", len(records))
	}
	r := records[0]
	if r.Kind != KindModule {
		t.Errorf("kind: got %s", r.Kind)
	}
	if r.Name != "МодульМенеджера" {
		t.Errorf("name: got %s", r.Name)
	}
	if r.Code != src || r.Body != src {
		t.Error("fallback code/body must equal the original text verbatim")
	}
	if r.Signature != "Модуль МодульМенеджера" {
		t.Errorf("signature: got %q", r.Signature)
	}
}

func TestSegmentEmptyText(t *testing.T) {
	if records := Segment("", "m.bsl"); len(records) != 0 {
		t.Errorf("expected no records for empty text, got %d", len(records))
	}
	if records := Segment("  \n\t\n", "m.bsl"); len(records) != 0 {
		t.Errorf("expected no records for blank text, got %d", len(records))
	}
}

func TestSegmentCaseInsensitiveKeywords(t *testing.T) {
	src := "ФУНКЦИЯ ВычислитьИтог(Таблица) ЭКСПОРТ\n\tВозврат 0;\nКОНЕЦФУНКЦИИ\n"
	records := Segment(src, "m.bsl")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Kind != KindFunction {
		t.Errorf("kind: got %s", r.Kind)
	}
	if !r.Export {
		t.Error("expected export flag")
	}
	if r.Signature != "Функция ВычислитьИтог(Таблица)" {
		t.Errorf("signature: got %q", r.Signature)
	}
}

func TestParseModuleReadsBOMAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Module.bsl")
	content := "\uFEFFПроцедура Обновить()\n\tА = 1;\nКонецПроцедуры\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	records := ParseModule(path)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "Обновить" {
		t.Errorf("name: got %s", records[0].Name)
	}
	if strings.Contains(records[0].Code, "\uFEFF") {
		t.Error("BOM leaked into code")
	}
}

func TestParseModuleUnreadable(t *testing.T) {
	if records := ParseModule(filepath.Join(t.TempDir(), "missing.bsl")); records != nil {
		t.Errorf("expected nil for unreadable file, got %d records", len(records))
	}
}

func TestExtractModuleInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Module.bsl")
	content := "#Область ОбластьПеременных\nПерем Кэш;\n#КонецОбласти\n" +
		"&НаСервере\nПроцедура Фоо()\nКонецПроцедуры\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	info := ExtractModuleInfo(path)
	if !info.HasVariables {
		t.Error("expected variables region")
	}
	if len(info.Directives) != 1 || info.Directives[0] != "НаСервере" {
		t.Errorf("directives: got %v", info.Directives)
	}
	if info.Size != len(content) {
		t.Errorf("size: got %d, want %d", info.Size, len(content))
	}
}
