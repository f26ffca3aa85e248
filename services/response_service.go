package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"scoreform/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrFormClosed        = errors.New("form is not accepting responses")
	ErrDuplicateResponse = errors.New("a response with this email already exists")
	ErrEmailRequired     = errors.New("email is required for this form")
)

type ResponseService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewResponseService(db *gorm.DB, redis *redis.Client) *ResponseService {
	return &ResponseService{db: db, redis: redis}
}

type SubmitResponseRequest struct {
	Email   string       `json:"email"`
	Answers map[uint]any `json:"answers"`
}

// PublicForm is the respondent-facing view of a form. Answer templates,
// scores and result rules never leave the server.
type PublicForm struct {
	Slug             string           `json:"slug"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	HeaderImage      string           `json:"header_image"`
	AcceptsResponses bool             `json:"accepts_responses"`
	CollectEmail     bool             `json:"collect_email"`
	Sections         []PublicSection  `json:"sections"`
	Questions        []PublicQuestion `json:"questions"`
}

type PublicSection struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type PublicQuestion struct {
	ID          uint           `json:"id"`
	SectionID   *uint          `json:"section_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	IsRequired  bool           `json:"is_required"`
	Options     []PublicOption `json:"options"`
}

type PublicOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// SubmitResponse scores a submission against the form graph, resolves the
// result text and persists everything as one atomic unit. A stored response
// always carries the score and result that were actually computed.
func (s *ResponseService) SubmitResponse(slug string, req *SubmitResponseRequest, ipAddress, userAgent string, hub *Hub) (*models.FormResponse, error) {
	form, err := s.getFormGraph(slug)
	if err != nil {
		return nil, err
	}

	if !form.AcceptsResponses {
		return nil, ErrFormClosed
	}

	email := strings.TrimSpace(req.Email)
	if form.CollectEmail && email == "" {
		return nil, ErrEmailRequired
	}

	// Best effort: two submissions racing this check may both pass, which is
	// acceptable for this feature.
	if form.LimitOneResponse && email != "" {
		var count int64
		if err := s.db.Model(&models.FormResponse{}).
			Where("form_id = ? AND email = ?", form.ID, email).
			Count(&count).Error; err != nil {
			return nil, errors.New("could not submit the response")
		}
		if count > 0 {
			return nil, ErrDuplicateResponse
		}
	}

	totalScore, records := ScoreAnswers(form.Questions, req.Answers)
	resultText := ResolveResult(form.ResultRules, totalScore)

	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	response := models.FormResponse{
		FormID:    form.ID,
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := tx.Create(&response).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("could not submit the response")
	}

	for i := range records {
		records[i].FormResponseID = response.ID
		if err := tx.Create(&records[i]).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("could not submit the response")
		}
	}

	response.TotalScore = totalScore
	response.ResultText = resultText
	if err := tx.Model(&response).Updates(map[string]any{
		"total_score": totalScore,
		"result_text": resultText,
	}).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("could not submit the response")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("could not submit the response")
	}

	response.Answers = records

	if hub != nil {
		var respondentCount int64
		if err := s.db.Model(&models.FormResponse{}).
			Where("form_id = ?", form.ID).
			Count(&respondentCount).Error; err != nil {
			log.Printf("Failed to count responses for form %s: %v", form.Slug, err)
		}
		hub.BroadcastToForm(form.Slug, "response_received", map[string]any{
			"response_id":      response.ID,
			"total_score":      response.TotalScore,
			"respondent_count": respondentCount,
			"created_at":       response.CreatedAt,
		})
	}

	return &response, nil
}

// GetPublicForm returns the respondent view for a share slug.
func (s *ResponseService) GetPublicForm(slug string) (*PublicForm, error) {
	form, err := s.getFormGraph(slug)
	if err != nil {
		return nil, err
	}

	public := &PublicForm{
		Slug:             form.Slug,
		Title:            form.Title,
		Description:      form.Description,
		HeaderImage:      form.HeaderImage,
		AcceptsResponses: form.AcceptsResponses,
		CollectEmail:     form.CollectEmail,
		Sections:         []PublicSection{},
		Questions:        []PublicQuestion{},
	}
	for _, section := range form.Sections {
		public.Sections = append(public.Sections, PublicSection{
			ID:          section.ID,
			Title:       section.Title,
			Description: section.Description,
		})
	}
	for _, question := range form.Questions {
		pq := PublicQuestion{
			ID:          question.ID,
			SectionID:   question.SectionID,
			Type:        question.Type,
			Title:       question.Title,
			Description: question.Description,
			Image:       question.Image,
			IsRequired:  question.IsRequired,
			Options:     []PublicOption{},
		}
		for _, option := range question.Options {
			pq.Options = append(pq.Options, PublicOption{ID: option.ID, Text: option.Text})
		}
		public.Questions = append(public.Questions, pq)
	}
	return public, nil
}

func (s *ResponseService) GetFormResponses(formID uint, userID uint) ([]models.FormResponse, error) {
	var form models.Form
	if err := s.db.Where("id = ? AND user_id = ?", formID, userID).First(&form).Error; err != nil {
		return nil, ErrFormNotFound
	}

	var responses []models.FormResponse
	err := s.db.Where("form_id = ?", formID).
		Preload("Answers").
		Order("created_at DESC").
		Find(&responses).Error
	return responses, err
}

func (s *ResponseService) GetResponseByID(formID uint, responseID uint, userID uint) (*models.FormResponse, error) {
	var form models.Form
	if err := s.db.Where("id = ? AND user_id = ?", formID, userID).First(&form).Error; err != nil {
		return nil, ErrFormNotFound
	}

	var response models.FormResponse
	err := s.db.Where("id = ? AND form_id = ?", responseID, formID).
		Preload("Answers").
		First(&response).Error
	if err != nil {
		return nil, errors.New("response not found")
	}
	return &response, nil
}

// GetFormOwner resolves the owner of a form by slug, used to authorize the
// live response feed.
func (s *ResponseService) GetFormOwner(slug string) (uint, error) {
	var form models.Form
	if err := s.db.Where("slug = ?", slug).First(&form).Error; err != nil {
		return 0, ErrFormNotFound
	}
	return form.UserID, nil
}

// getFormGraph loads the full ordered form graph by slug, read through a
// Redis cache that form saves invalidate. Respondent traffic therefore
// rarely touches the relational graph directly.
func (s *ResponseService) getFormGraph(slug string) (*models.Form, error) {
	if cached := s.getCachedForm(slug); cached != nil {
		return cached, nil
	}

	var form models.Form
	err := s.db.Where("slug = ?", slug).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order(`sections."order"`)
		}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order"`)
		}).
		Preload("Questions.Options.AnswerTemplate").
		Preload("ResultRules", func(db *gorm.DB) *gorm.DB {
			return db.Order(`result_rules."order"`)
		}).
		Preload("ResultRules.Texts", func(db *gorm.DB) *gorm.DB {
			return db.Order(`result_rule_texts."order"`)
		}).
		First(&form).Error
	if err != nil {
		return nil, ErrFormNotFound
	}

	s.storeCachedForm(&form)
	return &form, nil
}

func (s *ResponseService) getCachedForm(slug string) *models.Form {
	if s.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := s.redis.Get(ctx, formCacheKey(slug)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error getting form graph for %s: %v", slug, err)
		}
		return nil
	}

	var form models.Form
	if err := json.Unmarshal([]byte(data), &form); err != nil {
		log.Printf("Failed to unmarshal cached form graph for %s: %v", slug, err)
		return nil
	}
	return &form
}

func (s *ResponseService) storeCachedForm(form *models.Form) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(form)
	if err != nil {
		log.Printf("Failed to marshal form graph for %s: %v", form.Slug, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.redis.Set(ctx, formCacheKey(form.Slug), data, 1*time.Hour).Err(); err != nil {
		log.Printf("Failed to store form graph in Redis for %s: %v", form.Slug, err)
	}
}
