package engine

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xxxserbagd-cmyk/germasik/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "hashes.json"), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return New(st), st
}

const twoRecordDump = "1. ivan@mail.com:Secret1 | ФИО: Иванов Иван Иванович | Дата рождения: 15.06.1985 | СНИЛС: 112-233-445 95\n" +
	"2. petr@mail.com:Secret2 | ФИО: Петров Пётр Петрович | Дата рождения: 01.01.1950 | СНИЛС: 998-877-665 44\n"

func TestProcessClassifiesByBirthYear(t *testing.T) {
	e, _ := newTestEngine(t)
	res, err := e.Process(twoRecordDump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.ValidCount != 1 || res.InvalidCount != 1 || res.DuplicateCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/0",
			res.ValidCount, res.InvalidCount, res.DuplicateCount)
	}
	if res.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", res.TotalCount)
	}
	if !strings.Contains(res.Valid, "Иванов Иван Иванович") {
		t.Errorf("valid bucket missing the 1985 record:\n%s", res.Valid)
	}
	if !strings.Contains(res.Invalid, "Петров Пётр Петрович") {
		t.Errorf("invalid bucket missing the 1950 record:\n%s", res.Invalid)
	}
	if res.StoreStats.Count != 2 {
		t.Errorf("StoreStats.Count = %d, want 2", res.StoreStats.Count)
	}
}

func TestProcessRenderedBlock(t *testing.T) {
	e, _ := newTestEngine(t)
	res, err := e.Process(twoRecordDump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	for _, want := range []string{
		"#️⃣ СЛОТ №1",
		"🔐 Учетные данные",
		"СНИЛС: `112-233-445 95`",
		"Пароль: `Secret1`",
		"👤 Персональная информация",
		"ФИО: Иванов Иван Иванович", // the name is not code-wrapped
		"Дата рождения: `15.06.1985`",
		"📞 Контакты",
		"Почта: `ivan@mail.com`",
		"📄 Документы",
		"✅ Добавлено в базу: ФИО",
	} {
		if !strings.Contains(res.Valid, want) {
			t.Errorf("valid bucket missing %q:\n%s", want, res.Valid)
		}
	}
	if !strings.Contains(res.Invalid, "#️⃣ СЛОТ №2") {
		t.Errorf("second record did not get slot 2:\n%s", res.Invalid)
	}
}

func TestProcessSingleCredentialLine(t *testing.T) {
	const dump = "1. ivan@mail.com:Secret1 | ФИО: Иванов Иван | Дата рождения: 15.03.1960"

	e, _ := newTestEngine(t)
	res, err := e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if res.ValidCount != 1 || res.DuplicateCount != 0 {
		t.Fatalf("first run counts = %d valid / %d duplicates, want 1/0",
			res.ValidCount, res.DuplicateCount)
	}
	for _, want := range []string{
		"ФИО: Иванов Иван",
		"Почта: `ivan@mail.com`",
		"Пароль: `Secret1`",
		"Дата рождения: `15.03.1960`",
	} {
		if !strings.Contains(res.Valid, want) {
			t.Errorf("valid bucket missing %q:\n%s", want, res.Valid)
		}
	}

	res, err = e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if res.ValidCount != 0 || res.DuplicateCount != 1 {
		t.Fatalf("second run counts = %d valid / %d duplicates, want 0/1",
			res.ValidCount, res.DuplicateCount)
	}
}

func TestProcessSecondRunYieldsDuplicates(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Process(twoRecordDump, "dump.txt"); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	res, err := e.Process(twoRecordDump, "dump.txt")
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if res.DuplicateCount != 2 || res.ValidCount != 0 || res.InvalidCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 0/0/2",
			res.ValidCount, res.InvalidCount, res.DuplicateCount)
	}
	if !strings.Contains(res.Duplicates, "🚨 ОБНАРУЖЕН ДУБЛЬ ПО ФИО:") {
		t.Errorf("duplicate warning missing:\n%s", res.Duplicates)
	}
	if !strings.Contains(res.Duplicates, "• ФИО: Иванов Иван Иванович") {
		t.Errorf("duplicate warning missing the name:\n%s", res.Duplicates)
	}
	if strings.Contains(res.Duplicates, storedNotice) {
		t.Error("duplicates must not carry the stored notice")
	}
	if res.All != res.Duplicates {
		t.Error("All should equal Duplicates when nothing else was produced")
	}
	if res.StoreStats.Count != 2 {
		t.Errorf("StoreStats.Count = %d, want 2", res.StoreStats.Count)
	}
}

func TestProcessDuplicateWithinOneDocument(t *testing.T) {
	e, _ := newTestEngine(t)
	dump := "1. ivan@mail.com:Secret1 | ФИО: Иванов Иван Иванович | СНИЛС: 112-233-445 95\n" +
		"2. ivan2@mail.com:Secret2 | ФИО: Иванов Иван Иванович | СНИЛС: 112-233-445 95\n"

	res, err := e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// no birth date puts the first occurrence in the invalid bucket
	if res.InvalidCount != 1 || res.DuplicateCount != 1 {
		t.Fatalf("counts = %d/%d/%d, want 0/1/1",
			res.ValidCount, res.InvalidCount, res.DuplicateCount)
	}
	if res.StoreStats.Count != 1 {
		t.Errorf("StoreStats.Count = %d, want 1", res.StoreStats.Count)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Process("", "empty.txt")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("error = %v, want ErrEmptyInput", err)
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("error %T is not *ExtractionError", err)
	}
	if exErr.Source != "empty.txt" {
		t.Errorf("Source = %q, want %q", exErr.Source, "empty.txt")
	}
}

func TestProcessWhitespaceOnly(t *testing.T) {
	e, st := newTestEngine(t)
	_, err := e.Process("\n\n   \t\n", "blank.txt")
	if !errors.Is(err, ErrNoTextualContent) {
		t.Fatalf("error = %v, want ErrNoTextualContent", err)
	}
	if got := st.Stats().Count; got != 0 {
		t.Errorf("store mutated on rejected input: %d entries", got)
	}
}

func TestProcessGate(t *testing.T) {
	cases := []struct {
		name string
		dump string
	}{
		{"short name", "ФИО: Иван; СНИЛС: 112-233-445 95; ИНН: 500100732259"},
		{"no identifier", "ФИО: Иванов Иван Иванович; Регистрация: г. Москва; ул. Ленина"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, st := newTestEngine(t)
			res, err := e.Process(c.dump, "dump.txt")
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if res.TotalCount != 0 || res.All != "" {
				t.Errorf("gated record leaked into output: %+v", res)
			}
			if got := st.Stats().Count; got != 0 {
				t.Errorf("gated record was fingerprinted: %d entries", got)
			}
		})
	}
}

func TestProcessAllOrdering(t *testing.T) {
	// the invalid record comes first in the document; All must still put
	// the valid bucket first
	dump := "1. sidr@mail.com:p1 | ФИО: Сидоров Семён Семёнович | Дата рождения: 01.01.1950 | СНИЛС: 112-233-445 95\n" +
		"2. kozl@mail.com:p2 | ФИО: Козлов Кирилл Кириллович | Дата рождения: 02.02.1985 | СНИЛС: 998-877-665 44\n"

	e, _ := newTestEngine(t)
	res, err := e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	valid := strings.Index(res.All, "Козлов")
	invalid := strings.Index(res.All, "Сидоров")
	if valid < 0 || invalid < 0 {
		t.Fatalf("records missing from All:\n%s", res.All)
	}
	if valid > invalid {
		t.Error("All must list valid records before invalid ones")
	}
}

func TestBirthYearBoundary(t *testing.T) {
	cases := []struct {
		date  string
		valid bool
	}{
		{"10.10.1952", true},
		{"10.10.1951", false},
	}
	for _, c := range cases {
		e, _ := newTestEngine(t)
		dump := "ФИО: Иванов Иван Иванович | СНИЛС: 112-233-445 95 | Дата рождения: " + c.date
		res, err := e.Process(dump, "dump.txt")
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if c.valid && res.ValidCount != 1 {
			t.Errorf("date %s: ValidCount = %d, want 1", c.date, res.ValidCount)
		}
		if !c.valid && res.InvalidCount != 1 {
			t.Errorf("date %s: InvalidCount = %d, want 1", c.date, res.InvalidCount)
		}
	}
}

func TestBirthYearMissingIsInvalid(t *testing.T) {
	e, _ := newTestEngine(t)
	dump := "ФИО: Иванов Иван Иванович | СНИЛС: 112-233-445 95 | Почта: ivan@mail.com"
	res, err := e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.InvalidCount != 1 || res.ValidCount != 0 {
		t.Errorf("counts = %d/%d, want 0 valid, 1 invalid", res.ValidCount, res.InvalidCount)
	}
}

func TestFormatRecordSentinels(t *testing.T) {
	e, _ := newTestEngine(t)
	dump := "ФИО: Иванов Иван Иванович | СНИЛС: 112-233-445 95 | Почта: ivan@mail.com"
	res, err := e.Process(dump, "dump.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, want := range []string{
		"Пароль: -\n",
		"Дата рождения: -\n",
		"Серия/номер: -\n",
		"ИНН: -\n",
	} {
		if !strings.Contains(res.Invalid, want) {
			t.Errorf("rendered block missing %q:\n%s", want, res.Invalid)
		}
	}
}
