package services

import (
	"context"
	"errors"
	"testing"

	"skillsprint/models"

	"github.com/shopspring/decimal"
)

func createQuestion(t *testing.T, svc *QuizService, category, correct string) *models.QuizQuestion {
	t.Helper()
	q := models.QuizQuestion{
		Question:      "What does len() return?",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: correct,
		Explanation:   "because",
		Category:      category,
		Difficulty:    "Easy",
	}
	if err := svc.Create(context.Background(), &q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return &q
}

func TestQuizSubmit(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "quizzer")
	svc := NewQuizService(db)
	ctx := context.Background()
	q := createQuestion(t, svc, "go", "b")

	res, err := svc.Submit(ctx, user.ID, q.ID, " b ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.IsCorrect || res.XPEarned != QuizCorrectXP || res.CorrectAnswer != "B" || res.Grant == nil {
		t.Errorf("correct result = %+v", res)
	}

	res, err = svc.Submit(ctx, user.ID, q.ID, "A")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsCorrect || res.XPEarned != 0 || res.Explanation != "because" {
		t.Errorf("wrong result = %+v", res)
	}

	if _, err := svc.Submit(ctx, user.ID, q.ID, "E"); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("bad option: err = %v", err)
	}
	if _, err := svc.Submit(ctx, user.ID, "missing", "A"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("missing question: err = %v", err)
	}

	stats, err := svc.Stats(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAttempts != 2 || stats.CorrectAnswers != 1 || stats.TotalXPEarned != 50 ||
		!stats.Accuracy.Equal(decimal.NewFromInt(50)) {
		t.Errorf("stats = %+v", stats)
	}
	if got := reloadUser(t, db, user.ID); got.TotalXP != 50 {
		t.Errorf("total_xp = %d", got.TotalXP)
	}
}

func TestQuizRandomAndCategories(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuizService(db)
	ctx := context.Background()

	if _, err := svc.Random(ctx, QuizFilter{}); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("empty bank: err = %v", err)
	}

	createQuestion(t, svc, "go", "A")
	createQuestion(t, svc, "go", "C")
	sql := createQuestion(t, svc, "sql", "D")

	q, err := svc.Random(ctx, QuizFilter{Category: "sql", Difficulty: "EASY"})
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if q.ID != sql.ID {
		t.Errorf("Random picked %s outside the filter", q.ID)
	}

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0].Category != "go" || cats[0].Count != 2 {
		t.Errorf("categories = %+v", cats)
	}

	if err := svc.Create(ctx, &models.QuizQuestion{Question: "q", OptionA: "a", OptionB: "b", CorrectOption: "Z"}); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("create with bad option: err = %v", err)
	}
}
