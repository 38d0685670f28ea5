package store

import (
	"context"
	"testing"
)

func TestEventRepoAppendAndQuery(t *testing.T) {
	repos := map[string]EventRepo{
		"sqlite": openTestStore(t).EventRepo(),
		"memory": NewMemoryEventRepo(),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, p := range []string{"quiz-gen", "chat", "quiz-gen"} {
				err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
					Provider:     "mock",
					Model:        "mock",
					Purpose:      p,
					InputTokens:  10,
					OutputTokens: 5,
					Success:      p != "chat",
					RequestBody:  "[user]\nhello",
				})
				if err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("got %d events, want 3", len(all))
			}
			if all[0].ID < all[1].ID {
				t.Errorf("expected newest first, got ids %d, %d", all[0].ID, all[1].ID)
			}

			quiz, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz-gen", Limit: 1})
			if err != nil {
				t.Fatalf("query purpose: %v", err)
			}
			if len(quiz) != 1 || quiz[0].Purpose != "quiz-gen" {
				t.Errorf("filtered = %+v", quiz)
			}

			chat, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "chat"})
			if err != nil {
				t.Fatalf("query chat: %v", err)
			}
			if len(chat) != 1 || chat[0].Success {
				t.Errorf("chat events = %+v", chat)
			}

			got, err := repo.GetLLMEvent(ctx, all[0].ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got == nil || got.RequestBody != "[user]\nhello" {
				t.Errorf("get = %+v", got)
			}

			missing, err := repo.GetLLMEvent(ctx, 9999)
			if err != nil {
				t.Fatalf("get missing: %v", err)
			}
			if missing != nil {
				t.Errorf("expected nil for missing event")
			}
		})
	}
}
