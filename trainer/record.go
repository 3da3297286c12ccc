package trainer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Delimiter separates the fields of one record line.
const Delimiter = "|"

var (
	// ErrTooFewFields reports a line without the required fields.
	ErrTooFewFields = errors.New("too few fields")
	// ErrEmptyText reports a line whose word text is blank.
	ErrEmptyText = errors.New("empty text")
	// ErrEmptyTranslate reports a line whose translation is blank.
	ErrEmptyTranslate = errors.New("empty translation")
	// ErrBadCount reports a counter that is not a non-negative integer.
	ErrBadCount = errors.New("invalid correct answers count")
	// ErrFieldDelimiter reports a word that cannot be encoded without corrupting the record.
	ErrFieldDelimiter = errors.New("field contains delimiter or line break")
)

// LineError describes a skipped record line.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseOptions tunes ParseRecord.
type ParseOptions struct {
	// AllowMissingCount accepts "text|translate" lines with a zero counter.
	AllowMissingCount bool
	// OnSkip receives every malformed line. Blank lines are not reported.
	OnSkip func(*LineError)
}

// ParseRecord reads a dictionary record. Malformed lines are skipped; only read errors
// abort the parse.
func ParseRecord(r io.Reader, opts ParseOptions) (Dictionary, error) {
	var dict Dictionary
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		w, err := parseLine(raw, opts.AllowMissingCount)
		if err != nil {
			if opts.OnSkip != nil {
				opts.OnSkip(&LineError{Line: lineNo, Raw: raw, Err: err})
			}
			continue
		}
		dict = append(dict, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return dict, nil
}

func parseLine(raw string, allowMissingCount bool) (*Word, error) {
	// Anything after the third field is ignored.
	parts := strings.SplitN(raw, Delimiter, 4)
	if len(parts) < 2 || (len(parts) < 3 && !allowMissingCount) {
		return nil, ErrTooFewFields
	}
	text := strings.TrimSpace(parts[0])
	if text == "" {
		return nil, ErrEmptyText
	}
	translate := strings.TrimSpace(parts[1])
	if translate == "" {
		return nil, ErrEmptyTranslate
	}
	count := 0
	if len(parts) >= 3 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || n < 0 {
			return nil, ErrBadCount
		}
		count = n
	}
	return &Word{Text: text, Translate: translate, CorrectAnswersCount: count}, nil
}

// EncodeRecord writes one line per word joined by newlines, without a trailing newline.
func EncodeRecord(w io.Writer, d Dictionary) error {
	if err := Validate(d); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, word := range d {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		line := word.Text + Delimiter + word.Translate + Delimiter + strconv.Itoa(word.CorrectAnswersCount)
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Validate reports the first word that cannot be written to a record.
func Validate(d Dictionary) error {
	for _, word := range d {
		if err := validateField(word.Text); err != nil {
			return fmt.Errorf("word %q: %w", word.Text, err)
		}
		if err := validateField(word.Translate); err != nil {
			return fmt.Errorf("word %q: %w", word.Text, err)
		}
	}
	return nil
}

func validateField(s string) error {
	if strings.Contains(s, Delimiter) || strings.ContainsAny(s, "\r\n") {
		return ErrFieldDelimiter
	}
	return nil
}
