package questionnaire

import "testing"

func strPtr(s string) *string { return &s }

func TestComputeScore(t *testing.T) {
	questions := []Question{
		{ID: "q1", CorrectAnswer: strPtr("a")},
		{ID: "q2", CorrectAnswer: strPtr("b")},
		{ID: "q3", CorrectAnswer: strPtr("c")},
		{ID: "q4", CorrectAnswer: strPtr("d")},
		{ID: "q5", CorrectAnswer: strPtr("e")},
	}

	cases := []struct {
		name    string
		answers map[string]string
		want    int
	}{
		{"all correct", map[string]string{"q1": "a", "q2": "b", "q3": "c", "q4": "d", "q5": "e"}, 100},
		{"three of five", map[string]string{"q1": "a", "q2": "b", "q3": "c", "q4": "x", "q5": "y"}, 60},
		{"none", map[string]string{"q1": "z"}, 0},
		{"empty answers", map[string]string{}, 0},
		{"case sensitive, no normalization", map[string]string{"q1": "A", "q2": "b", "q3": "c", "q4": "d", "q5": "e"}, 80},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ComputeScore(c.answers, questions); got != c.want {
				t.Fatalf("ComputeScore=%d, want %d", got, c.want)
			}
		})
	}
}

func TestComputeScoreUnkeyedQuestionsDilute(t *testing.T) {
	// a question without a key still counts toward the denominator
	questions := []Question{
		{ID: "q1", CorrectAnswer: strPtr("a")},
		{ID: "q2", CorrectAnswer: strPtr("b")},
		{ID: "q3"}, // open question, no key
	}
	answers := map[string]string{"q1": "a", "q2": "b", "q3": "whatever"}
	if got := ComputeScore(answers, questions); got != 67 {
		t.Fatalf("diluted score=%d, want 67", got)
	}
}

func TestComputeScoreDeterministic(t *testing.T) {
	questions := []Question{
		{ID: "q1", CorrectAnswer: strPtr("yes")},
		{ID: "q2", CorrectAnswer: strPtr("no")},
		{ID: "q3", CorrectAnswer: strPtr("4")},
	}
	answers := map[string]string{"q1": "yes", "q2": "yes", "q3": "4"}
	first := ComputeScore(answers, questions)
	for i := 0; i < 50; i++ {
		if got := ComputeScore(answers, questions); got != first {
			t.Fatalf("run %d: score=%d, want %d", i, got, first)
		}
	}
	if first != 67 {
		t.Fatalf("score=%d, want 67", first)
	}
}

func TestComputeScoreNoQuestions(t *testing.T) {
	if got := ComputeScore(map[string]string{"q": "a"}, nil); got != 0 {
		t.Fatalf("score=%d, want 0", got)
	}
}
