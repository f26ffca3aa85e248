package services

import (
	"math"
	"strconv"
	"strings"

	"scoreform/models"
)

// ScoreAnswers computes the total score for a submission against the form's
// question graph (questions with options and answer templates preloaded).
// Submitted values are keyed by question ID: a single option ID for
// multiple-choice and dropdown, a list of option IDs for checkbox, free text
// otherwise. Stale or forged option IDs are ignored, never an error, so one
// bad reference cannot abort the computation. The total is a plain integer
// sum and does not depend on iteration order.
func ScoreAnswers(questions []models.Question, answers map[uint]any) (int, []models.ResponseAnswer) {
	total := 0
	records := []models.ResponseAnswer{}

	for i := range questions {
		question := &questions[i]
		value, ok := answers[question.ID]
		if !ok || isEmptyValue(value) {
			continue
		}

		switch question.Type {
		case models.QuestionCheckbox:
			for _, v := range listValues(value) {
				option := matchOption(question, v)
				if option == nil {
					continue
				}
				score := option.TemplateScore()
				total += score
				optionID := option.ID
				records = append(records, models.ResponseAnswer{
					QuestionID:       question.ID,
					QuestionOptionID: &optionID,
					AnswerText:       option.Text,
					Score:            score,
				})
			}
		case models.QuestionMultipleChoice, models.QuestionDropdown:
			option := matchOption(question, value)
			if option == nil {
				continue
			}
			score := option.TemplateScore()
			total += score
			optionID := option.ID
			records = append(records, models.ResponseAnswer{
				QuestionID:       question.ID,
				QuestionOptionID: &optionID,
				AnswerText:       option.Text,
				Score:            score,
			})
		default:
			text := textValue(value)
			if text == "" {
				continue
			}
			records = append(records, models.ResponseAnswer{
				QuestionID: question.ID,
				AnswerText: text,
			})
		}
	}

	return total, records
}

// ResolveResult selects the result text for a total score. Rules must be in
// ascending order; the first matching rule wins and no further rules are
// evaluated, so overlaps are resolved purely by rule position. Returns nil
// when no rule matches, or when the matching rule has no texts.
func ResolveResult(rules []models.ResultRule, totalScore int) *string {
	for i := range rules {
		rule := &rules[i]
		if !ruleMatches(rule, totalScore) {
			continue
		}

		texts := []string{}
		for _, text := range rule.Texts {
			if strings.TrimSpace(text.Content) == "" {
				continue
			}
			texts = append(texts, text.Content)
		}
		if len(texts) == 0 {
			return nil
		}
		result := strings.Join(texts, "\n\n")
		return &result
	}
	return nil
}

func ruleMatches(rule *models.ResultRule, totalScore int) bool {
	switch rule.ConditionType {
	case models.ConditionRange:
		// Nil bounds are open; both nil means the rule always matches.
		if rule.MinScore != nil && totalScore < *rule.MinScore {
			return false
		}
		if rule.MaxScore != nil && totalScore > *rule.MaxScore {
			return false
		}
		return true
	case models.ConditionEqual:
		return rule.SingleScore != nil && totalScore == *rule.SingleScore
	case models.ConditionGreater:
		return rule.SingleScore != nil && totalScore > *rule.SingleScore
	case models.ConditionLess:
		return rule.SingleScore != nil && totalScore < *rule.SingleScore
	}
	// Unrecognized condition types never match.
	return false
}

// matchOption resolves a submitted value to one of the question's own
// options. Values that do not parse as an ID or do not belong to the
// question resolve to nil.
func matchOption(question *models.Question, value any) *models.QuestionOption {
	id, ok := optionIDValue(value)
	if !ok {
		return nil
	}
	for i := range question.Options {
		if question.Options[i].ID == id {
			return &question.Options[i]
		}
	}
	return nil
}

func optionIDValue(value any) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v >= 0 && v == math.Trunc(v) {
			return uint(v), true
		}
	case int:
		if v >= 0 {
			return uint(v), true
		}
	case uint:
		return v, true
	case string:
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			return uint(id), true
		}
	}
	return 0, false
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func listValues(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

// textValue renders a free-text submission; list values are joined with ", ".
func textValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := []string{}
		for _, item := range v {
			if s := textValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
