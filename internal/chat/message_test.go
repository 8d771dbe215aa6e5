package chat

import "testing"

func TestBlockLevelSuppresses(t *testing.T) {
	tests := []struct {
		level  BlockLevel
		kind   Kind
		expect bool
	}{
		{Unblocked, KindChat, false},
		{Unblocked, KindWhisper, false},
		{BlockWhisper, KindChat, false},
		{BlockWhisper, KindWhisper, true},
		{BlockAll, KindChat, true},
		{BlockAll, KindWhisper, true},
		{BlockAll, KindNotice, false},
	}

	for _, tt := range tests {
		if got := tt.level.Suppresses(tt.kind); got != tt.expect {
			t.Errorf("%s suppresses %s: expected %v, got %v", tt.level, tt.kind, tt.expect, got)
		}
	}
}

func TestMessageAttribution(t *testing.T) {
	// a colon inside the nickname must not change who the sender is
	msg := NewChat("al:ice", "hi: there")
	if msg.From != "al:ice" || msg.Text != "al:ice: hi: there" || msg.Kind != KindChat {
		t.Errorf("unexpected chat message %+v", msg)
	}

	w := NewWhisper("bob", "psst")
	if w.From != "bob" || w.Text != "bob whispers: psst" || w.Kind != KindWhisper {
		t.Errorf("unexpected whisper %+v", w)
	}

	n := NewNotice("Room 1: bob has joined.")
	if n.From != "" || n.Kind != KindNotice {
		t.Errorf("notices carry no sender: %+v", n)
	}
}
