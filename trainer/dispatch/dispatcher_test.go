package dispatch

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/wordbot/trainer"
	"github.com/m3rciful/wordbot/trainer/session"
	"github.com/m3rciful/wordbot/trainer/store"
)

const chat int64 = 77

type fakeFetcher struct {
	content string
	err     error
	closed  bool
	refs    []FileRef
}

func (f *fakeFetcher) Fetch(_ context.Context, ref FileRef) (io.ReadCloser, error) {
	f.refs = append(f.refs, ref)
	if f.err != nil {
		return nil, f.err
	}
	return &trackingReader{Reader: strings.NewReader(f.content), f: f}, nil
}

type trackingReader struct {
	io.Reader
	f *fakeFetcher
}

func (r *trackingReader) Close() error {
	r.f.closed = true
	return nil
}

// failingStore wraps a real store and fails saves on demand.
type failingStore struct {
	store.Store
	failSave bool
	failLoad bool
}

func (s *failingStore) Load(ctx context.Context, chatID int64) (trainer.Dictionary, error) {
	if s.failLoad {
		return nil, errors.New("permission denied")
	}
	return s.Store.Load(ctx, chatID)
}

func (s *failingStore) Save(ctx context.Context, chatID int64, d trainer.Dictionary) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, chatID, d)
}

func newDispatcher(t *testing.T, record string, fetcher Fetcher) (*Dispatcher, *failingStore) {
	t.Helper()
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(defaultPath, []byte(record), 0o644); err != nil {
		t.Fatalf("write default: %v", err)
	}
	st := &failingStore{Store: store.NewFileStore(filepath.Join(dir, "chats"), defaultPath)}
	reg := session.NewRegistry(st, session.Options{
		LearnedThreshold: 3,
		VariantCount:     4,
		NewRand:          func(int64) *rand.Rand { return rand.New(rand.NewPCG(3, 5)) },
	})
	return New(reg, fetcher, Options{MaxImportBytes: 64}), st
}

func dispatch(t *testing.T, d *Dispatcher, ev Event) []Reply {
	t.Helper()
	ev.ChatID = chat
	replies, err := d.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("dispatch %+v: %v", ev, err)
	}
	return replies
}

func press(t *testing.T, d *Dispatcher, token string) []Reply {
	t.Helper()
	return dispatch(t, d, Event{Kind: KindButton, Token: token})
}

func tokens(choices []Choice) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		out = append(out, c.Token)
	}
	return out
}

func TestStartAndEcho(t *testing.T) {
	d, _ := newDispatcher(t, "", nil)

	for _, text := range []string{"/start", " /start ", "/start@wordbot", "/start ref123", "/start@wordbot ref123"} {
		replies := dispatch(t, d, Event{Kind: KindText, Text: text})
		if len(replies) != 1 || replies[0].ChatID != chat || replies[0].Text != msgMenu {
			t.Fatalf("%q: replies = %+v", text, replies)
		}
		got := strings.Join(tokens(replies[0].Choices), ",")
		if got != "learn_words_clicked,statistics_clicked,reset_clicked" {
			t.Fatalf("%q: menu tokens = %s", text, got)
		}
	}

	replies := dispatch(t, d, Event{Kind: KindText, Text: "hello"})
	if len(replies) != 1 || replies[0].Text != "You wrote: hello" || len(replies[0].Choices) != 0 {
		t.Fatalf("echo = %+v", replies)
	}

	long := strings.Repeat("я", MaxTextLength)
	replies = dispatch(t, d, Event{Kind: KindText, Text: long})
	if n := len([]rune(replies[0].Text)); n != MaxTextLength {
		t.Fatalf("echo length = %d", n)
	}
}

func TestUnknownTokenIsIgnored(t *testing.T) {
	d, _ := newDispatcher(t, "cat|кот|0", nil)
	if replies := press(t, d, "something_else"); len(replies) != 0 {
		t.Fatalf("replies = %+v", replies)
	}
}

func TestMainMenuButton(t *testing.T) {
	d, _ := newDispatcher(t, "", nil)
	replies := press(t, d, TokenMainMenu)
	if len(replies) != 1 || len(replies[0].Choices) != 3 {
		t.Fatalf("replies = %+v", replies)
	}
}

func TestStatisticsScenario(t *testing.T) {
	d, _ := newDispatcher(t, "cat|кот|3\ndog|собака|3\nfox|лиса|1", nil)
	replies := press(t, d, TokenStatistics)
	if len(replies) != 1 || replies[0].Text != "Learned 2 of 3 words | 66%" {
		t.Fatalf("replies = %+v", replies)
	}

	empty, _ := newDispatcher(t, "", nil)
	replies = press(t, empty, TokenStatistics)
	if replies[0].Text != msgEmpty {
		t.Fatalf("empty statistics = %+v", replies)
	}
}

func TestLearnAndAnswerFlow(t *testing.T) {
	d, _ := newDispatcher(t, "cat|кот|0\ndog|собака|0\nfox|лиса|0", nil)

	replies := press(t, d, TokenLearn)
	if len(replies) != 1 {
		t.Fatalf("replies = %+v", replies)
	}
	q := replies[0]
	if len(q.Choices) != 4 || q.Choices[3].Token != TokenMainMenu {
		t.Fatalf("question choices = %+v", q.Choices)
	}
	translations := map[string]string{"cat": "кот", "dog": "собака", "fox": "лиса"}
	want, ok := translations[q.Text]
	if !ok {
		t.Fatalf("question text = %q", q.Text)
	}
	correct, wrong := -1, -1
	for i, c := range q.Choices[:3] {
		if c.Token != AnswerToken(i) {
			t.Fatalf("choice %d token = %s", i, c.Token)
		}
		if c.Label == want {
			correct = i
		} else {
			wrong = i
		}
	}

	replies = press(t, d, AnswerToken(correct))
	if len(replies) != 2 || replies[0].Text != msgCorrect {
		t.Fatalf("after correct = %+v", replies)
	}
	if len(replies[1].Choices) == 0 {
		t.Fatal("expected the next question after an answer")
	}

	next := replies[1]
	nextWant := translations[next.Text]
	for i, c := range next.Choices[:len(next.Choices)-1] {
		if c.Label != nextWant {
			wrong = i
			break
		}
	}
	replies = press(t, d, AnswerToken(wrong))
	if !strings.HasPrefix(replies[0].Text, "Incorrect! "+next.Text+" is "+nextWant) {
		t.Fatalf("after wrong = %+v", replies)
	}
}

func TestStaleAnswers(t *testing.T) {
	d, _ := newDispatcher(t, "cat|кот|0", nil)
	for _, token := range []string{"answer_0", "answer_x"} {
		replies := press(t, d, token)
		if len(replies) != 2 || replies[0].Text != msgStale || len(replies[1].Choices) != 3 {
			t.Fatalf("%s: replies = %+v", token, replies)
		}
	}
	press(t, d, TokenLearn)
	replies := press(t, d, "answer_5")
	if replies[0].Text != msgStale {
		t.Fatalf("out of range: %+v", replies)
	}
}

func TestAllLearned(t *testing.T) {
	d, _ := newDispatcher(t, "cat|кот|3", nil)
	replies := press(t, d, TokenLearn)
	if len(replies) != 1 || replies[0].Text != msgAllLearned {
		t.Fatalf("replies = %+v", replies)
	}
}

func TestResetProgress(t *testing.T) {
	d, st := newDispatcher(t, "cat|кот|3\ndog|собака|4", nil)

	st.failSave = true
	replies, err := d.Dispatch(context.Background(), Event{Kind: KindButton, ChatID: chat, Token: TokenReset})
	if err == nil || len(replies) != 1 || replies[0].Text != msgSaveFailed {
		t.Fatalf("failed reset = %+v, %v", replies, err)
	}
	if replies := press(t, d, TokenStatistics); replies[0].Text != "Learned 2 of 2 words | 100%" {
		t.Fatalf("stats after failed reset = %+v", replies)
	}

	st.failSave = false
	if replies := press(t, d, TokenReset); replies[0].Text != msgResetDone {
		t.Fatalf("reset = %+v", replies)
	}
	if replies := press(t, d, TokenStatistics); replies[0].Text != "Learned 0 of 2 words | 0%" {
		t.Fatalf("stats after reset = %+v", replies)
	}
}

func TestFileImport(t *testing.T) {
	f := &fakeFetcher{content: "cat|кошка\nowl|сова\nbad\nbee|пчела|2"}
	d, _ := newDispatcher(t, "cat|кот|0", f)

	replies := dispatch(t, d, Event{Kind: KindFile, File: FileRef{ID: "file-1", Name: "words.txt", Size: 30}})
	if len(replies) != 1 || replies[0].Text != "File processed! 2 new words were added to your dictionary." {
		t.Fatalf("replies = %+v", replies)
	}
	if !f.closed {
		t.Fatal("fetched file was not closed")
	}
	if replies := press(t, d, TokenStatistics); replies[0].Text != "Learned 0 of 3 words | 0%" {
		t.Fatalf("stats = %+v", replies)
	}

	replies = dispatch(t, d, Event{Kind: KindFile, File: FileRef{ID: "file-2"}})
	if replies[0].Text != msgImportNothing {
		t.Fatalf("repeat import = %+v", replies)
	}
}

func TestFileImportFailures(t *testing.T) {
	ctx := context.Background()

	f := &fakeFetcher{content: "cat|кот"}
	d, _ := newDispatcher(t, "", f)
	replies, err := d.Dispatch(ctx, Event{Kind: KindFile, ChatID: chat, File: FileRef{ID: "big", Size: 1000}})
	if !errors.Is(err, ErrImportTooLarge) || len(f.refs) != 0 {
		t.Fatalf("declared size: %+v, %v, fetched %d", replies, err, len(f.refs))
	}

	f = &fakeFetcher{content: strings.Repeat("a|b\n", 40)}
	d, _ = newDispatcher(t, "", f)
	replies, err = d.Dispatch(ctx, Event{Kind: KindFile, ChatID: chat, File: FileRef{ID: "sneaky"}})
	if !errors.Is(err, ErrImportTooLarge) || !strings.HasPrefix(replies[0].Text, "The file is too large") {
		t.Fatalf("actual size: %+v, %v", replies, err)
	}

	f = &fakeFetcher{err: errors.New("telegram unavailable")}
	d, _ = newDispatcher(t, "", f)
	replies, err = d.Dispatch(ctx, Event{Kind: KindFile, ChatID: chat, File: FileRef{ID: "x"}})
	if err == nil || replies[0].Text != msgFetchFailed {
		t.Fatalf("fetch error: %+v, %v", replies, err)
	}

	d, _ = newDispatcher(t, "", nil)
	if _, err := d.Dispatch(ctx, Event{Kind: KindFile, ChatID: chat}); !errors.Is(err, ErrNoFetcher) {
		t.Fatalf("no fetcher: %v", err)
	}
}

func TestParseAnswerToken(t *testing.T) {
	tests := []struct {
		token   string
		index   int
		isToken bool
		wantErr bool
	}{
		{token: "answer_0", index: 0, isToken: true},
		{token: "answer_12", index: 12, isToken: true},
		{token: "answer_", isToken: true, wantErr: true},
		{token: "answer_-x", isToken: true, wantErr: true},
		{token: "learn_words_clicked"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			index, ok, err := ParseAnswerToken(tt.token)
			if ok != tt.isToken || (err != nil) != tt.wantErr || (err == nil && index != tt.index) {
				t.Fatalf("got %d, %v, %v", index, ok, err)
			}
		})
	}
}

func TestIsStartCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "/start", want: true},
		{text: "/start@wordbot", want: true},
		{text: "/start ref123", want: true},
		{text: "/startx"},
		{text: "start"},
		{text: "/stats"},
		{text: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsStartCommand(tt.text); got != tt.want {
				t.Fatalf("IsStartCommand(%q) = %v", tt.text, got)
			}
		})
	}
}

func TestEveryEventResolvesChat(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{name: "start", ev: Event{Kind: KindText, Text: "/start"}},
		{name: "echo", ev: Event{Kind: KindText, Text: "hello"}},
		{name: "main menu", ev: Event{Kind: KindButton, Token: TokenMainMenu}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, st := newDispatcher(t, "cat|кот|0", nil)
			dispatch(t, d, tt.ev)
			record := st.Store.(*store.FileStore).Path(chat)
			data, err := os.ReadFile(record)
			if err != nil || string(data) != "cat|кот|0" {
				t.Fatalf("chat record = %q, %v", data, err)
			}
		})
	}
}

func TestLoadFailureOnText(t *testing.T) {
	d, st := newDispatcher(t, "cat|кот|0", nil)
	st.failLoad = true
	ev := Event{Kind: KindText, ChatID: chat, Text: "/start"}
	replies, err := d.Dispatch(context.Background(), ev)
	if err == nil || len(replies) != 1 || replies[0].Text != msgLoadFailed {
		t.Fatalf("replies = %+v, err = %v", replies, err)
	}

	st.failLoad = false
	replies, err = d.Dispatch(context.Background(), ev)
	if err != nil || replies[0].Text != msgMenu {
		t.Fatalf("retry: replies = %+v, err = %v", replies, err)
	}
}
