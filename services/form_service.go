package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"scoreform/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrFormNotFound = errors.New("form not found")

type FormService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewFormService(db *gorm.DB, redis *redis.Client) *FormService {
	return &FormService{db: db, redis: redis}
}

// FormPayload is the builder payload the client authors and the shape the
// snapshot reproduces for editing. Cross-entity references inside the payload
// (question -> section, option -> answer template) are array indices local to
// this payload, not persisted identities.
type FormPayload struct {
	Title            string                  `json:"title" binding:"required"`
	Description      string                  `json:"description"`
	HeaderImage      string                  `json:"header_image"`
	AcceptsResponses *bool                   `json:"accepts_responses"`
	CollectEmail     bool                    `json:"collect_email"`
	LimitOneResponse bool                    `json:"limit_one_response"`
	Sections         []SectionPayload        `json:"sections"`
	AnswerTemplates  []AnswerTemplatePayload `json:"answer_templates"`
	ResultRules      []ResultRulePayload     `json:"result_rules"`
	Questions        []QuestionPayload       `json:"questions"`
}

type SectionPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AnswerTemplatePayload struct {
	AnswerText string `json:"answer_text"`
	Score      int    `json:"score"`
}

type ResultRulePayload struct {
	ConditionType string   `json:"condition_type"`
	MinScore      *int     `json:"min_score"`
	MaxScore      *int     `json:"max_score"`
	SingleScore   *int     `json:"single_score"`
	Texts         []string `json:"texts"`
}

type QuestionPayload struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	IsRequired  bool            `json:"is_required"`
	SectionID   *int            `json:"section_id"`
	Options     []OptionPayload `json:"options"`
}

type OptionPayload struct {
	Text             string `json:"text"`
	AnswerTemplateID *int   `json:"answer_template_id"`
}

// Validate rejects out-of-enum values before any mutation happens.
func (p *FormPayload) Validate() error {
	for _, q := range p.Questions {
		if !models.IsValidQuestionType(q.Type) {
			return errors.New("invalid question type: " + q.Type)
		}
	}
	for _, r := range p.ResultRules {
		if !models.IsValidConditionType(r.ConditionType) {
			return errors.New("invalid condition type: " + r.ConditionType)
		}
	}
	return nil
}

func (s *FormService) CreateForm(userID uint, payload *FormPayload) (*models.Form, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	form := models.Form{
		UserID:           userID,
		Slug:             uuid.NewString(),
		Title:            payload.Title,
		Description:      payload.Description,
		HeaderImage:      payload.HeaderImage,
		AcceptsResponses: true,
		CollectEmail:     payload.CollectEmail,
		LimitOneResponse: payload.LimitOneResponse,
	}
	if payload.AcceptsResponses != nil {
		form.AcceptsResponses = *payload.AcceptsResponses
	}

	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&form).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("could not save the form")
	}

	if err := materializeGraph(tx, form.ID, payload); err != nil {
		tx.Rollback()
		return nil, errors.New("could not save the form")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("could not save the form")
	}

	return s.GetFormByID(form.ID, userID)
}

func (s *FormService) UpdateForm(formID uint, userID uint, payload *FormPayload) (*models.Form, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var form models.Form
	if err := s.db.Where("id = ? AND user_id = ?", formID, userID).First(&form).Error; err != nil {
		return nil, ErrFormNotFound
	}

	form.Title = payload.Title
	form.Description = payload.Description
	form.HeaderImage = payload.HeaderImage
	form.CollectEmail = payload.CollectEmail
	form.LimitOneResponse = payload.LimitOneResponse
	if payload.AcceptsResponses != nil {
		form.AcceptsResponses = *payload.AcceptsResponses
	}

	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&form).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("could not save the form")
	}

	// Replace the whole owned graph. Local indices in the payload are only
	// meaningful within one submission, so a diff/merge against the previous
	// graph cannot be done safely.
	if err := deleteOwnedGraph(tx, form.ID); err != nil {
		tx.Rollback()
		return nil, errors.New("could not save the form")
	}

	if err := materializeGraph(tx, form.ID, payload); err != nil {
		tx.Rollback()
		return nil, errors.New("could not save the form")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("could not save the form")
	}

	s.invalidateCache(form.Slug)

	return s.GetFormByID(form.ID, userID)
}

// materializeGraph turns the nested builder payload into persisted entities.
// First pass creates sections and answer templates and records a
// position -> generated ID map per kind; second pass creates rules and
// questions, resolving local-index references through those maps. Entries
// with blank required text are skipped without shifting how later indices
// resolve: the maps are keyed by original array position.
func materializeGraph(tx *gorm.DB, formID uint, payload *FormPayload) error {
	sectionIDs := make(map[int]uint)
	for i, sp := range payload.Sections {
		section := models.Section{
			FormID:      formID,
			Title:       sp.Title,
			Description: sp.Description,
			Order:       i,
		}
		if err := tx.Create(&section).Error; err != nil {
			return err
		}
		sectionIDs[i] = section.ID
	}

	templateIDs := make(map[int]uint)
	for i, tp := range payload.AnswerTemplates {
		text := strings.TrimSpace(tp.AnswerText)
		if text == "" {
			continue
		}
		template := models.AnswerTemplate{
			FormID:     formID,
			AnswerText: text,
			Score:      tp.Score,
			Order:      i,
		}
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		templateIDs[i] = template.ID
	}

	for i, rp := range payload.ResultRules {
		rule := models.ResultRule{
			FormID:        formID,
			ConditionType: rp.ConditionType,
			MinScore:      rp.MinScore,
			MaxScore:      rp.MaxScore,
			SingleScore:   rp.SingleScore,
			Order:         i,
		}
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}

		// Texts are renumbered by their position among the kept entries.
		kept := 0
		for _, content := range rp.Texts {
			trimmed := strings.TrimSpace(content)
			if trimmed == "" {
				continue
			}
			text := models.ResultRuleText{
				ResultRuleID: rule.ID,
				Content:      trimmed,
				Order:        kept,
			}
			if err := tx.Create(&text).Error; err != nil {
				return err
			}
			kept++
		}
	}

	for i, qp := range payload.Questions {
		question := models.Question{
			FormID:      formID,
			Type:        qp.Type,
			Title:       qp.Title,
			Description: qp.Description,
			Image:       qp.Image,
			IsRequired:  qp.IsRequired,
			Order:       i,
		}
		// An unresolved section index means "no section", not an error.
		if qp.SectionID != nil {
			if id, ok := sectionIDs[*qp.SectionID]; ok {
				question.SectionID = &id
			}
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}

		// Only choice-style questions carry options.
		if !models.IsChoiceType(qp.Type) {
			continue
		}
		for j, op := range qp.Options {
			text := strings.TrimSpace(op.Text)
			if text == "" {
				continue
			}
			option := models.QuestionOption{
				QuestionID: question.ID,
				Text:       text,
				Order:      j,
			}
			// Options pointing at a skipped template are created without
			// one and score zero at evaluation time.
			if op.AnswerTemplateID != nil {
				if id, ok := templateIDs[*op.AnswerTemplateID]; ok {
					option.AnswerTemplateID = &id
				}
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// deleteOwnedGraph hard-deletes every owned entity kind for the form.
// Responses are kept: they snapshot their scores and are not part of the
// replaceable graph.
func deleteOwnedGraph(tx *gorm.DB, formID uint) error {
	var questionIDs []uint
	if err := tx.Model(&models.Question{}).Where("form_id = ?", formID).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("form_id = ?", formID).Delete(&models.Question{}).Error; err != nil {
		return err
	}

	var ruleIDs []uint
	if err := tx.Model(&models.ResultRule{}).Where("form_id = ?", formID).Pluck("id", &ruleIDs).Error; err != nil {
		return err
	}
	if len(ruleIDs) > 0 {
		if err := tx.Where("result_rule_id IN ?", ruleIDs).Delete(&models.ResultRuleText{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("form_id = ?", formID).Delete(&models.ResultRule{}).Error; err != nil {
		return err
	}

	if err := tx.Where("form_id = ?", formID).Delete(&models.AnswerTemplate{}).Error; err != nil {
		return err
	}
	return tx.Where("form_id = ?", formID).Delete(&models.Section{}).Error
}

func (s *FormService) GetUserForms(userID uint) ([]models.Form, error) {
	var forms []models.Form
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

func (s *FormService) GetFormByID(formID uint, userID uint) (*models.Form, error) {
	var form models.Form
	err := s.db.Where("id = ? AND user_id = ?", formID, userID).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order(`sections."order"`)
		}).
		Preload("AnswerTemplates", func(db *gorm.DB) *gorm.DB {
			return db.Order(`answer_templates."order"`)
		}).
		Preload("ResultRules", func(db *gorm.DB) *gorm.DB {
			return db.Order(`result_rules."order"`)
		}).
		Preload("ResultRules.Texts", func(db *gorm.DB) *gorm.DB {
			return db.Order(`result_rule_texts."order"`)
		}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order"`)
		}).
		First(&form).Error
	if err != nil {
		return nil, ErrFormNotFound
	}
	return &form, nil
}

// Snapshot rebuilds the builder payload shape from the persisted graph for
// round-trip editing. A question's section_id becomes the array index of its
// section within the snapshot, matching the local-indexing convention the
// materializer consumes. Option answer_template_id is intentionally not
// round-tripped: templates are redefined on every save.
func (s *FormService) Snapshot(formID uint, userID uint) (*FormPayload, error) {
	form, err := s.GetFormByID(formID, userID)
	if err != nil {
		return nil, err
	}
	return buildPayload(form), nil
}

func buildPayload(form *models.Form) *FormPayload {
	accepts := form.AcceptsResponses
	payload := &FormPayload{
		Title:            form.Title,
		Description:      form.Description,
		HeaderImage:      form.HeaderImage,
		AcceptsResponses: &accepts,
		CollectEmail:     form.CollectEmail,
		LimitOneResponse: form.LimitOneResponse,
		Sections:         []SectionPayload{},
		AnswerTemplates:  []AnswerTemplatePayload{},
		ResultRules:      []ResultRulePayload{},
		Questions:        []QuestionPayload{},
	}

	sectionIndex := make(map[uint]int)
	for i, section := range form.Sections {
		sectionIndex[section.ID] = i
		payload.Sections = append(payload.Sections, SectionPayload{
			Title:       section.Title,
			Description: section.Description,
		})
	}

	for _, template := range form.AnswerTemplates {
		payload.AnswerTemplates = append(payload.AnswerTemplates, AnswerTemplatePayload{
			AnswerText: template.AnswerText,
			Score:      template.Score,
		})
	}

	for _, rule := range form.ResultRules {
		texts := []string{}
		for _, text := range rule.Texts {
			texts = append(texts, text.Content)
		}
		payload.ResultRules = append(payload.ResultRules, ResultRulePayload{
			ConditionType: rule.ConditionType,
			MinScore:      rule.MinScore,
			MaxScore:      rule.MaxScore,
			SingleScore:   rule.SingleScore,
			Texts:         texts,
		})
	}

	for _, question := range form.Questions {
		qp := QuestionPayload{
			Type:        question.Type,
			Title:       question.Title,
			Description: question.Description,
			Image:       question.Image,
			IsRequired:  question.IsRequired,
			Options:     []OptionPayload{},
		}
		if question.SectionID != nil {
			if idx, ok := sectionIndex[*question.SectionID]; ok {
				localIdx := idx
				qp.SectionID = &localIdx
			}
		}
		for _, option := range question.Options {
			qp.Options = append(qp.Options, OptionPayload{Text: option.Text})
		}
		payload.Questions = append(payload.Questions, qp)
	}

	return payload
}

func (s *FormService) DeleteForm(formID uint, userID uint) error {
	var form models.Form
	if err := s.db.Where("id = ? AND user_id = ?", formID, userID).First(&form).Error; err != nil {
		return ErrFormNotFound
	}

	if err := s.db.Delete(&models.Form{}, formID).Error; err != nil {
		return err
	}

	s.invalidateCache(form.Slug)
	return nil
}

func (s *FormService) invalidateCache(slug string) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, formCacheKey(slug)).Err(); err != nil {
		log.Printf("Failed to invalidate form cache for %s: %v", slug, err)
	}
}

func formCacheKey(slug string) string {
	return "form:" + slug
}
