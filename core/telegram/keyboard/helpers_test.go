package keyboard

import "testing"

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "Learn words", Data: "learn_words_clicked"},
		{Text: "Statistics", Data: "statistics_clicked"},
		{Text: "Reset progress", Data: "reset_clicked"},
	}

	m := InlineButtonsNPerRow(buttons, 2)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	btn := m.InlineKeyboard[1][0]
	if btn.Text != "Reset progress" || btn.Data != "reset_clicked" || btn.Unique != "" {
		t.Fatalf("button = %+v", btn)
	}

	m = InlineButtons(buttons)
	if len(m.InlineKeyboard) != 3 {
		t.Fatalf("one per row = %+v", m.InlineKeyboard)
	}
}

func TestInlineButtonsRowsEmpty(t *testing.T) {
	if m := InlineButtonsRows(nil, []InlineBtn{}); m != nil {
		t.Fatalf("expected nil markup, got %+v", m)
	}
	if m := InlineButtonsNPerRow(nil, 0); m != nil {
		t.Fatalf("expected nil markup, got %+v", m)
	}
}
