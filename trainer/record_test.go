package trainer

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseRecordSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"cat|кот|3",
		"",
		"broken line",
		"dog| собака |1",
		"|пусто|0",
		"fox|  |0",
		"owl|сова|many",
		"bee|пчела|-1",
		"  ",
		"hen|курица|2|extra|fields",
	}, "\n")

	var skipped []*LineError
	d, err := ParseRecord(strings.NewReader(input), ParseOptions{
		OnSkip: func(e *LineError) { skipped = append(skipped, e) },
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := Dictionary{
		{Text: "cat", Translate: "кот", CorrectAnswersCount: 3},
		{Text: "dog", Translate: "собака", CorrectAnswersCount: 1},
		{Text: "hen", Translate: "курица", CorrectAnswersCount: 2},
	}
	if !reflect.DeepEqual(d, want) {
		t.Fatalf("parsed = %v, want %v", words(d), words(want))
	}

	wantErrs := []struct {
		line int
		err  error
	}{
		{3, ErrTooFewFields},
		{5, ErrEmptyText},
		{6, ErrEmptyTranslate},
		{7, ErrBadCount},
		{8, ErrBadCount},
	}
	if len(skipped) != len(wantErrs) {
		t.Fatalf("skipped %d lines, want %d", len(skipped), len(wantErrs))
	}
	for i, w := range wantErrs {
		if skipped[i].Line != w.line || !errors.Is(skipped[i], w.err) {
			t.Errorf("skip %d = %v, want line %d %v", i, skipped[i], w.line, w.err)
		}
	}
}

func TestParseRecordRequiresCount(t *testing.T) {
	d, err := ParseRecord(strings.NewReader("cat|кот"), ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(d) != 0 {
		t.Fatalf("expected line without count to be skipped, got %v", words(d))
	}

	d, err = ParseImport(strings.NewReader("cat|кот\ndog|собака|2"))
	if err != nil {
		t.Fatalf("parse import: %v", err)
	}
	if len(d) != 2 || d[0].CorrectAnswersCount != 0 || d[1].CorrectAnswersCount != 2 {
		t.Fatalf("import parse = %v", words(d))
	}
}

func TestRecordRoundTrip(t *testing.T) {
	d := Dictionary{
		{Text: "cat", Translate: "кот", CorrectAnswersCount: 3},
		{Text: "Big Dog", Translate: "большая собака", CorrectAnswersCount: 0},
		{Text: "fox", Translate: "лиса", CorrectAnswersCount: 12},
	}
	var buf bytes.Buffer
	if err := EncodeRecord(&buf, d); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.HasSuffix(buf.String(), "\n") {
		t.Fatal("record must not end with a newline")
	}
	got, err := ParseRecord(&buf, ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Fatalf("round trip = %v, want %v", words(got), words(d))
	}
}

func TestEncodeRecordRejectsDelimiter(t *testing.T) {
	d := Dictionary{
		{Text: "ok", Translate: "fine"},
		{Text: "a|b", Translate: "c"},
	}
	var buf bytes.Buffer
	if err := EncodeRecord(&buf, d); !errors.Is(err, ErrFieldDelimiter) {
		t.Fatalf("err = %v, want ErrFieldDelimiter", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial record written: %q", buf.String())
	}
	if err := Validate(Dictionary{{Text: "multi\nline", Translate: "x"}}); !errors.Is(err, ErrFieldDelimiter) {
		t.Fatalf("newline err = %v", err)
	}
}

func words(d Dictionary) []Word {
	out := make([]Word, 0, len(d))
	for _, w := range d {
		out = append(out, *w)
	}
	return out
}
