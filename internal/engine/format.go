package engine

import (
	"fmt"
	"strings"

	"github.com/xxxserbagd-cmyk/germasik/internal/extract"
)

// displayPlaceholders are scrubbed from rendered values on top of the
// extractor's own rejection; they show up in fields without placeholder
// rejection (name, dates).
var displayPlaceholders = map[string]bool{
	"не найден":  true,
	"не найдено": true,
	"нет":        true,
}

// cleanValue trims a value and maps placeholders to the sentinel.
func cleanValue(v string) string {
	if v == "" || v == extract.Sentinel {
		return extract.Sentinel
	}
	v = strings.TrimSpace(v)
	if displayPlaceholders[strings.ToLower(v)] {
		return extract.Sentinel
	}
	return v
}

// codeValue wraps a non-sentinel value in inline-code backticks.
func codeValue(v string) string {
	cleaned := cleanValue(v)
	if cleaned == extract.Sentinel {
		return extract.Sentinel
	}
	return "`" + cleaned + "`"
}

// FormatRecord renders one record as a labeled text block. The block ends
// with a blank line so concatenated blocks stay separated.
func FormatRecord(r extract.Record, slot int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#️⃣ СЛОТ №%d\n", slot)
	b.WriteString("🔐 Учетные данные\n")
	fmt.Fprintf(&b, "СНИЛС: %s\n", codeValue(r.SNILS))
	fmt.Fprintf(&b, "Пароль: %s\n", codeValue(r.Password))
	fmt.Fprintf(&b, "Ключ: %s\n", codeValue(r.Key))
	b.WriteString("👤 Персональная информация\n")
	fmt.Fprintf(&b, "ФИО: %s\n", cleanValue(r.FullName))
	fmt.Fprintf(&b, "Дата рождения: %s\n", codeValue(r.BirthDate))
	fmt.Fprintf(&b, "Адрес проживания: %s\n", codeValue(r.Residence))
	b.WriteString("📞 Контакты\n")
	fmt.Fprintf(&b, "Телефон: %s\n", codeValue(r.Phone))
	fmt.Fprintf(&b, "Почта: %s\n", codeValue(r.Email))
	b.WriteString("📄 Документы\n")
	b.WriteString("Паспорт РФ:\n")
	fmt.Fprintf(&b, "Серия/номер: %s\n", codeValue(r.Passport))
	fmt.Fprintf(&b, "Дата выдачи: %s\n", codeValue(r.IssueDate))
	fmt.Fprintf(&b, "Код подразделения: %s\n", codeValue(r.UnitCode))
	fmt.Fprintf(&b, "ИНН: %s\n", codeValue(r.INN))
	b.WriteString("\n")
	return b.String()
}

// formatDuplicateWarning renders the prefix block for a record whose name
// fingerprint is already recorded.
func formatDuplicateWarning(name string) string {
	var b strings.Builder
	b.WriteString("🚨 ОБНАРУЖЕН ДУБЛЬ ПО ФИО:\n")
	fmt.Fprintf(&b, "• ФИО: %s\n", name)
	b.WriteString("\n")
	return b.String()
}

// storedNotice marks a record whose fingerprint was newly persisted.
const storedNotice = "✅ Добавлено в базу: ФИО\n"
