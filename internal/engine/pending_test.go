package engine

import (
	"testing"
	"time"
)

func TestPendingInputsSingleSlot(t *testing.T) {
	p := NewPendingInputs()

	q1 := PendingQuestion{ConscriptID: "c1", DirectiveID: "d1", Question: "which db?", AskedAt: time.Now()}
	if err := p.Ask(q1); err != nil {
		t.Fatalf("first Ask failed: %v", err)
	}

	// A second question for the same conscript is refused while the first
	// is unanswered.
	q2 := PendingQuestion{ConscriptID: "c1", Question: "which port?"}
	if err := p.Ask(q2); err == nil {
		t.Fatal("second Ask should be refused")
	}

	// A different conscript is unaffected.
	if err := p.Ask(PendingQuestion{ConscriptID: "c2", Question: "other"}); err != nil {
		t.Fatalf("Ask for other conscript failed: %v", err)
	}

	got, ok := p.Get("c1")
	if !ok || got.Question != "which db?" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}

	answered, err := p.Answer("c1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answered.Question != "which db?" {
		t.Errorf("answered question = %q", answered.Question)
	}

	// Answered question frees the slot.
	if err := p.Ask(q2); err != nil {
		t.Fatalf("Ask after answer failed: %v", err)
	}
}

func TestAnswerWithoutQuestionFails(t *testing.T) {
	p := NewPendingInputs()
	if _, err := p.Answer("ghost"); err == nil {
		t.Fatal("expected error answering a conscript with nothing pending")
	}
}

func TestClearDropsQuestion(t *testing.T) {
	p := NewPendingInputs()
	if err := p.Ask(PendingQuestion{ConscriptID: "c1", Question: "q"}); err != nil {
		t.Fatal(err)
	}
	p.Clear("c1")
	if _, ok := p.Get("c1"); ok {
		t.Fatal("question survived Clear")
	}
	if got := p.List(); len(got) != 0 {
		t.Fatalf("List = %v", got)
	}
}

func TestExtractQuestion(t *testing.T) {
	tests := []struct {
		reply string
		want  string
		ok    bool
	}{
		{"I am stuck.\nQUESTION: use postgres or sqlite?", "use postgres or sqlite?", true},
		{"QUESTION:   trailing space?  ", "trailing space?", true},
		{"all good, WORK COMPLETE", "", false},
		{"mentions QUESTION: mid-line only", "", false},
	}
	for _, tt := range tests {
		got, ok := extractQuestion(tt.reply)
		if ok != tt.ok || got != tt.want {
			t.Errorf("extractQuestion(%q) = %q, %v; want %q, %v", tt.reply, got, ok, tt.want, tt.ok)
		}
	}
}
