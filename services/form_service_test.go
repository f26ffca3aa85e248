package services

import (
	"testing"

	"scoreform/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Form{},
		&models.Section{},
		&models.AnswerTemplate{},
		&models.ResultRule{},
		&models.ResultRuleText{},
		&models.Question{},
		&models.QuestionOption{},
		&models.FormResponse{},
		&models.ResponseAnswer{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func builderPayload() *FormPayload {
	return &FormPayload{
		Title: "Personality check",
		Sections: []SectionPayload{
			{Title: "About you"},
			{Title: "Habits"},
		},
		AnswerTemplates: []AnswerTemplatePayload{
			{AnswerText: "Agree", Score: 2},
			{AnswerText: "   "}, // blank, skipped
			{AnswerText: "Disagree", Score: 0},
		},
		ResultRules: []ResultRulePayload{
			{ConditionType: models.ConditionRange, MinScore: intPtr(0), MaxScore: intPtr(2), Texts: []string{"Low score"}},
			{ConditionType: models.ConditionRange, MinScore: intPtr(3), Texts: []string{"", "High score", "Keep it up"}},
		},
		Questions: []QuestionPayload{
			{
				Type:      models.QuestionMultipleChoice,
				Title:     "Do you agree?",
				SectionID: intPtr(0),
				Options: []OptionPayload{
					{Text: "Agree", AnswerTemplateID: intPtr(0)},
					{Text: "Disagree", AnswerTemplateID: intPtr(2)},
				},
			},
			{
				Type:      models.QuestionCheckbox,
				Title:     "Pick all that apply",
				SectionID: intPtr(1),
				Options: []OptionPayload{
					{Text: "Morning", AnswerTemplateID: intPtr(0)},
					{Text: "Evening", AnswerTemplateID: intPtr(1)}, // points at skipped template
					{Text: "   "}, // blank option, skipped
				},
			},
			{
				Type:  models.QuestionShortAnswer,
				Title: "Anything else?",
			},
		},
	}
}

func TestCreateFormMaterializesGraph(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	form, err := service.CreateForm(1, builderPayload())
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	if len(form.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(form.Sections))
	}
	if len(form.AnswerTemplates) != 2 {
		t.Errorf("answer templates = %d, want 2 (blank skipped)", len(form.AnswerTemplates))
	}
	// The skipped template keeps its original array position in the order field.
	if form.AnswerTemplates[1].Order != 2 {
		t.Errorf("second template order = %d, want 2", form.AnswerTemplates[1].Order)
	}
	if len(form.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(form.Questions))
	}

	first := form.Questions[0]
	if first.SectionID == nil || *first.SectionID != form.Sections[0].ID {
		t.Errorf("first question not linked to first section")
	}
	if len(first.Options) != 2 {
		t.Fatalf("first question options = %d, want 2", len(first.Options))
	}
	if first.Options[0].AnswerTemplateID == nil || *first.Options[0].AnswerTemplateID != form.AnswerTemplates[0].ID {
		t.Errorf("option did not resolve template by original array position")
	}
	if first.Options[1].AnswerTemplateID == nil || *first.Options[1].AnswerTemplateID != form.AnswerTemplates[1].ID {
		t.Errorf("option referencing index 2 did not resolve past the skipped entry")
	}

	second := form.Questions[1]
	if len(second.Options) != 2 {
		t.Fatalf("second question options = %d, want 2 (blank skipped)", len(second.Options))
	}
	if second.Options[1].AnswerTemplateID != nil {
		t.Errorf("option referencing a skipped template should have no template")
	}
	// Blank option was dropped but the survivors keep their payload positions.
	if second.Options[0].Order != 0 || second.Options[1].Order != 1 {
		t.Errorf("option orders = %d,%d, want 0,1", second.Options[0].Order, second.Options[1].Order)
	}

	if len(form.Questions[2].Options) != 0 {
		t.Errorf("short answer question should have no options")
	}
}

func TestRuleTextsRenumberedByFilteredPosition(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	form, err := service.CreateForm(1, builderPayload())
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	if len(form.ResultRules) != 2 {
		t.Fatalf("result rules = %d, want 2", len(form.ResultRules))
	}
	texts := form.ResultRules[1].Texts
	if len(texts) != 2 {
		t.Fatalf("kept texts = %d, want 2", len(texts))
	}
	if texts[0].Content != "High score" || texts[0].Order != 0 {
		t.Errorf("first kept text = %q order %d, want %q order 0", texts[0].Content, texts[0].Order, "High score")
	}
	if texts[1].Content != "Keep it up" || texts[1].Order != 1 {
		t.Errorf("second kept text = %q order %d, want %q order 1", texts[1].Content, texts[1].Order, "Keep it up")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	payload := builderPayload()
	form, err := service.CreateForm(1, payload)
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	snapshot, err := service.Snapshot(form.ID, 1)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if len(snapshot.Sections) != 2 {
		t.Errorf("snapshot sections = %d, want 2", len(snapshot.Sections))
	}
	if snapshot.Sections[0].Title != "About you" || snapshot.Sections[1].Title != "Habits" {
		t.Errorf("snapshot section order lost: %+v", snapshot.Sections)
	}
	if len(snapshot.AnswerTemplates) != 2 {
		t.Errorf("snapshot templates = %d, want 2 (blanks dropped)", len(snapshot.AnswerTemplates))
	}
	if len(snapshot.Questions) != 3 {
		t.Fatalf("snapshot questions = %d, want 3", len(snapshot.Questions))
	}

	// Section references come back as array indices, not persisted IDs.
	if snapshot.Questions[0].SectionID == nil || *snapshot.Questions[0].SectionID != 0 {
		t.Errorf("first question section index = %v, want 0", snapshot.Questions[0].SectionID)
	}
	if snapshot.Questions[1].SectionID == nil || *snapshot.Questions[1].SectionID != 1 {
		t.Errorf("second question section index = %v, want 1", snapshot.Questions[1].SectionID)
	}
	if snapshot.Questions[2].SectionID != nil {
		t.Errorf("unsectioned question should have nil section index")
	}

	// Template references are never round-tripped; only option text survives.
	for _, question := range snapshot.Questions {
		for _, option := range question.Options {
			if option.AnswerTemplateID != nil {
				t.Errorf("snapshot option carries a template reference: %+v", option)
			}
		}
	}
	if snapshot.Questions[0].Options[0].Text != "Agree" {
		t.Errorf("option text lost in snapshot")
	}

	// A snapshot fed back through an update keeps the graph shape stable.
	if _, err := service.UpdateForm(form.ID, 1, snapshot); err != nil {
		t.Fatalf("UpdateForm(snapshot) error: %v", err)
	}
	again, err := service.Snapshot(form.ID, 1)
	if err != nil {
		t.Fatalf("second Snapshot() error: %v", err)
	}
	if len(again.Sections) != len(snapshot.Sections) ||
		len(again.Questions) != len(snapshot.Questions) ||
		len(again.AnswerTemplates) != len(snapshot.AnswerTemplates) ||
		len(again.ResultRules) != len(snapshot.ResultRules) {
		t.Errorf("snapshot not stable across a round-trip save")
	}
}

func TestUpdateFormReplacesWholeGraph(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	form, err := service.CreateForm(1, builderPayload())
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	empty := &FormPayload{Title: "Emptied"}
	if _, err := service.UpdateForm(form.ID, 1, empty); err != nil {
		t.Fatalf("UpdateForm() error: %v", err)
	}

	snapshot, err := service.Snapshot(form.ID, 1)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(snapshot.Sections) != 0 || len(snapshot.Questions) != 0 ||
		len(snapshot.AnswerTemplates) != 0 || len(snapshot.ResultRules) != 0 {
		t.Errorf("update did not fully replace the owned graph: %+v", snapshot)
	}

	// No orphaned child rows may survive the replace.
	var optionCount, textCount int64
	db.Model(&models.QuestionOption{}).Count(&optionCount)
	db.Model(&models.ResultRuleText{}).Count(&textCount)
	if optionCount != 0 || textCount != 0 {
		t.Errorf("orphaned rows after replace: options=%d texts=%d", optionCount, textCount)
	}
}

func TestUnresolvedSectionIndexMeansNoSection(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	payload := &FormPayload{
		Title: "Loose reference",
		Questions: []QuestionPayload{
			{Type: models.QuestionShortAnswer, Title: "Q", SectionID: intPtr(7)},
		},
	}
	form, err := service.CreateForm(1, payload)
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}
	if form.Questions[0].SectionID != nil {
		t.Errorf("unresolved section index should leave the question unsectioned")
	}
}

func TestCreateFormRejectsInvalidEnums(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	tests := []struct {
		name    string
		payload *FormPayload
	}{
		{
			name: "bad question type",
			payload: &FormPayload{
				Title:     "Bad",
				Questions: []QuestionPayload{{Type: "ranking", Title: "Q"}},
			},
		},
		{
			name: "bad condition type",
			payload: &FormPayload{
				Title:       "Bad",
				ResultRules: []ResultRulePayload{{ConditionType: "between"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateForm(1, tt.payload); err == nil {
				t.Fatalf("CreateForm() accepted invalid payload")
			}
		})
	}

	// Validation rejects before any mutation.
	var formCount int64
	db.Model(&models.Form{}).Count(&formCount)
	if formCount != 0 {
		t.Errorf("invalid payloads must not persist anything, found %d forms", formCount)
	}
}

func TestDeleteForm(t *testing.T) {
	db := setupTestDB(t)
	service := NewFormService(db, nil)

	form, err := service.CreateForm(1, builderPayload())
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}

	if err := service.DeleteForm(form.ID, 2); err == nil {
		t.Errorf("DeleteForm() should refuse another user's form")
	}
	if err := service.DeleteForm(form.ID, 1); err != nil {
		t.Fatalf("DeleteForm() error: %v", err)
	}
	if _, err := service.GetFormByID(form.ID, 1); err == nil {
		t.Errorf("deleted form still readable")
	}
}
