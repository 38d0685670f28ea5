package quiz

import (
	"errors"
	"testing"

	"github.com/abhisek/studybuddy/internal/gateway"
)

func TestSetupOptions(t *testing.T) {
	s := NewSetup()
	if len(s.Options()) != 0 {
		t.Fatalf("empty setup should have no options, got %v", s.Options())
	}

	s.SyllabusText = "Kinematics\n\n  Dynamics  \n"
	opts := s.Options()
	if len(opts) != 2 || opts[0].Value != "Kinematics" || opts[1].Value != "Dynamics" {
		t.Fatalf("typed options = %+v", opts)
	}

	s.ParsedTopics = []string{"Optics", "Waves"}
	opts = s.Options()
	if len(opts) != 3 || opts[0].Value != FullSyllabus || opts[1].Value != "Optics" {
		t.Fatalf("parsed options = %+v", opts)
	}
}

func TestSetupResolve(t *testing.T) {
	base := func() Setup {
		s := NewSetup()
		s.SyllabusText = "Kinematics\nDynamics"
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*Setup)
		wantErr error
		check   func(t *testing.T, r Request)
	}{
		{
			name:    "no topics",
			mutate:  func(s *Setup) { s.SyllabusText = "  \n" },
			wantErr: ErrNoValidTopic,
		},
		{
			name:    "unknown selection",
			mutate:  func(s *Setup) { s.Selected = "Thermodynamics" },
			wantErr: ErrNoValidTopic,
		},
		{
			name:    "full syllabus without parsed topics",
			mutate:  func(s *Setup) { s.Selected = FullSyllabus },
			wantErr: ErrNoValidTopic,
		},
		{
			name:    "zero questions",
			mutate:  func(s *Setup) { s.NumQuestions = 0 },
			wantErr: ErrInvalidQuestionCount,
		},
		{
			name:    "negative duration",
			mutate:  func(s *Setup) { s.DurationMinutes = -1 },
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "bad difficulty",
			mutate:  func(s *Setup) { s.Difficulty = "insane" },
			wantErr: ErrInvalidDifficulty,
		},
		{
			name:   "default selection is first topic",
			mutate: func(s *Setup) {},
			check: func(t *testing.T, r Request) {
				if r.Topic != "Kinematics" || r.Quiz.Topic != "Kinematics" || r.Quiz.FullSyllabusTopics != nil {
					t.Errorf("request = %+v", r)
				}
				if r.Quiz.NumQuestions != DefaultNumQuestions || r.Quiz.Difficulty != gateway.DifficultyMedium {
					t.Errorf("defaults = %+v", r.Quiz)
				}
			},
		},
		{
			name: "full syllabus sentinel",
			mutate: func(s *Setup) {
				s.ParsedTopics = []string{"Optics", "Waves"}
				s.Selected = FullSyllabus
				s.DurationMinutes = 10
				s.Difficulty = gateway.DifficultyHard
			},
			check: func(t *testing.T, r Request) {
				if r.Topic != FullSyllabusTopic || r.Quiz.Topic != "" {
					t.Errorf("topic = %q / %q", r.Topic, r.Quiz.Topic)
				}
				if len(r.Quiz.FullSyllabusTopics) != 2 || r.DurationMinutes != 10 {
					t.Errorf("request = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			r, err := s.Resolve()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if Message(err) == "" {
					t.Errorf("no user message for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestSetupReset(t *testing.T) {
	s := NewSetup()
	s.SyllabusText = "A"
	s.ParsedTopics = []string{"B"}
	s.SourceFile = "syllabus.pdf"
	s.DurationMinutes = 15
	s.NumQuestions = 12

	s.Reset()

	if s.SyllabusText != "" || s.ParsedTopics != nil || s.SourceFile != "" {
		t.Errorf("topics not cleared: %+v", s)
	}
	if s.DurationMinutes != 0 || s.NumQuestions != DefaultNumQuestions {
		t.Errorf("numbers not reset: %+v", s)
	}
}
