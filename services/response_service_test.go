package services

import (
	"testing"

	"scoreform/models"
)

func scoredFormPayload() *FormPayload {
	return &FormPayload{
		Title:        "Fitness check",
		CollectEmail: true,
		AnswerTemplates: []AnswerTemplatePayload{
			{AnswerText: "Often", Score: 2},
			{AnswerText: "Sometimes", Score: 3},
		},
		ResultRules: []ResultRulePayload{
			{ConditionType: models.ConditionRange, MinScore: intPtr(0), MaxScore: intPtr(4), Texts: []string{"Take it slow"}},
			{ConditionType: models.ConditionRange, MinScore: intPtr(5), Texts: []string{"Great shape", "Keep going"}},
		},
		Questions: []QuestionPayload{
			{
				Type:  models.QuestionCheckbox,
				Title: "Which do you do weekly?",
				Options: []OptionPayload{
					{Text: "Running", AnswerTemplateID: intPtr(0)},
					{Text: "Swimming", AnswerTemplateID: intPtr(1)},
				},
			},
			{
				Type:  models.QuestionShortAnswer,
				Title: "Anything else?",
			},
		},
	}
}

func submissionTarget(t *testing.T) (*FormService, *ResponseService, *models.Form) {
	t.Helper()

	db := setupTestDB(t)
	formService := NewFormService(db, nil)
	responseService := NewResponseService(db, nil)

	form, err := formService.CreateForm(1, scoredFormPayload())
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}
	return formService, responseService, form
}

func TestSubmitResponseScoresAndResolves(t *testing.T) {
	_, responseService, form := submissionTarget(t)

	options := form.Questions[0].Options
	req := &SubmitResponseRequest{
		Email: "runner@example.com",
		Answers: map[uint]any{
			form.Questions[0].ID: []any{float64(options[0].ID), float64(options[1].ID)},
			form.Questions[1].ID: "I cycle too",
		},
	}

	response, err := responseService.SubmitResponse(form.Slug, req, "203.0.113.9", "test-agent", nil)
	if err != nil {
		t.Fatalf("SubmitResponse() error: %v", err)
	}

	if response.TotalScore != 5 {
		t.Errorf("total score = %d, want 5", response.TotalScore)
	}
	if response.ResultText == nil || *response.ResultText != "Great shape\n\nKeep going" {
		t.Errorf("result text = %v, want joined rule texts", deref(response.ResultText))
	}
	if len(response.Answers) != 3 {
		t.Errorf("answer records = %d, want 3 (two checkbox selections plus text)", len(response.Answers))
	}

	// The stored response must match what was computed.
	stored, err := responseService.GetResponseByID(form.ID, response.ID, 1)
	if err != nil {
		t.Fatalf("GetResponseByID() error: %v", err)
	}
	if stored.TotalScore != 5 || stored.ResultText == nil {
		t.Errorf("stored response lost score or result: %+v", stored)
	}
	if len(stored.Answers) != 3 {
		t.Errorf("stored answer records = %d, want 3", len(stored.Answers))
	}
}

func TestSubmittedScoresAreFrozen(t *testing.T) {
	formService, responseService, form := submissionTarget(t)

	options := form.Questions[0].Options
	req := &SubmitResponseRequest{
		Email: "first@example.com",
		Answers: map[uint]any{
			form.Questions[0].ID: []any{float64(options[0].ID)},
		},
	}
	response, err := responseService.SubmitResponse(form.Slug, req, "", "", nil)
	if err != nil {
		t.Fatalf("SubmitResponse() error: %v", err)
	}
	if response.TotalScore != 2 {
		t.Fatalf("total score = %d, want 2", response.TotalScore)
	}

	// Re-saving the form redefines the whole graph; already-stored responses
	// keep the scores frozen at submission time.
	payload := scoredFormPayload()
	payload.AnswerTemplates[0].Score = 50
	if _, err := formService.UpdateForm(form.ID, 1, payload); err != nil {
		t.Fatalf("UpdateForm() error: %v", err)
	}

	stored, err := responseService.GetResponseByID(form.ID, response.ID, 1)
	if err != nil {
		t.Fatalf("GetResponseByID() error: %v", err)
	}
	if stored.TotalScore != 2 {
		t.Errorf("stored total changed after template edit: %d", stored.TotalScore)
	}
	if len(stored.Answers) != 1 || stored.Answers[0].Score != 2 {
		t.Errorf("stored answer score changed after template edit: %+v", stored.Answers)
	}
}

func TestSubmitResponseDuplicateEmailBlocked(t *testing.T) {
	db := setupTestDB(t)
	formService := NewFormService(db, nil)
	responseService := NewResponseService(db, nil)

	payload := scoredFormPayload()
	payload.LimitOneResponse = true
	form, err := formService.CreateForm(1, payload)
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	req := &SubmitResponseRequest{Email: "once@example.com", Answers: map[uint]any{}}
	if _, err := responseService.SubmitResponse(form.Slug, req, "", "", nil); err != nil {
		t.Fatalf("first SubmitResponse() error: %v", err)
	}
	if _, err := responseService.SubmitResponse(form.Slug, req, "", "", nil); err != ErrDuplicateResponse {
		t.Errorf("second SubmitResponse() error = %v, want ErrDuplicateResponse", err)
	}
}

func TestSubmitResponseClosedForm(t *testing.T) {
	db := setupTestDB(t)
	formService := NewFormService(db, nil)
	responseService := NewResponseService(db, nil)

	payload := scoredFormPayload()
	closed := false
	payload.AcceptsResponses = &closed
	form, err := formService.CreateForm(1, payload)
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	req := &SubmitResponseRequest{Email: "late@example.com", Answers: map[uint]any{}}
	if _, err := responseService.SubmitResponse(form.Slug, req, "", "", nil); err != ErrFormClosed {
		t.Errorf("SubmitResponse() error = %v, want ErrFormClosed", err)
	}
}

func TestSubmitResponseRequiresEmailWhenCollected(t *testing.T) {
	_, responseService, form := submissionTarget(t)

	req := &SubmitResponseRequest{Answers: map[uint]any{}}
	if _, err := responseService.SubmitResponse(form.Slug, req, "", "", nil); err != ErrEmailRequired {
		t.Errorf("SubmitResponse() error = %v, want ErrEmailRequired", err)
	}
}

func TestGetPublicFormHidesScoring(t *testing.T) {
	_, responseService, form := submissionTarget(t)

	public, err := responseService.GetPublicForm(form.Slug)
	if err != nil {
		t.Fatalf("GetPublicForm() error: %v", err)
	}

	if len(public.Questions) != 2 {
		t.Fatalf("public questions = %d, want 2", len(public.Questions))
	}
	if len(public.Questions[0].Options) != 2 {
		t.Errorf("public options = %d, want 2", len(public.Questions[0].Options))
	}
	for _, option := range public.Questions[0].Options {
		if option.Text == "" {
			t.Errorf("public option missing text")
		}
	}
}

func TestSubmitResponseUnknownSlug(t *testing.T) {
	db := setupTestDB(t)
	responseService := NewResponseService(db, nil)

	req := &SubmitResponseRequest{Answers: map[uint]any{}}
	if _, err := responseService.SubmitResponse("no-such-slug", req, "", "", nil); err != ErrFormNotFound {
		t.Errorf("SubmitResponse() error = %v, want ErrFormNotFound", err)
	}
}
