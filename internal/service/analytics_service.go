package service

import (
	"context"
	"fmt"

	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// AnalyticsService builds dashboard aggregates.
type AnalyticsService interface {
	// ChartResponses tallies mcq answers per question, labels in first-seen order.
	ChartResponses(ctx context.Context, user *model.User, surveyID string) ([]model.ChartData, error)
}

type analyticsService struct {
	surveys   SurveyService
	responses repository.ResponseRepository
}

// NewAnalyticsService builds an AnalyticsService.
func NewAnalyticsService(surveys SurveyService, responses repository.ResponseRepository) AnalyticsService {
	return &analyticsService{surveys: surveys, responses: responses}
}

func (s *analyticsService) ChartResponses(ctx context.Context, user *model.User, surveyID string) ([]model.ChartData, error) {
	if err := authorizeSurveyRead(ctx, s.surveys, user, surveyID); err != nil {
		return nil, err
	}
	survey, err := s.surveys.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return Chart(survey.Questions, responses), nil
}

// Chart tallies mcq options per question. Answers pointing outside the
// question list or option range are skipped.
func Chart(questions []model.Question, responses []model.Response) []model.ChartData {
	type tally struct {
		labels []string
		counts map[string]int
	}
	tallies := make([]tally, len(questions))
	for i := range tallies {
		tallies[i].counts = make(map[string]int)
	}

	for _, r := range responses {
		for qi, a := range r.Data {
			if qi >= len(questions) || a.Type != model.QuestionMCQ || a.Option == nil {
				continue
			}
			options := questions[qi].Options
			if *a.Option < 0 || *a.Option >= len(options) {
				continue
			}
			label := options[*a.Option]
			t := &tallies[qi]
			if _, seen := t.counts[label]; !seen {
				t.labels = append(t.labels, label)
			}
			t.counts[label]++
		}
	}

	out := make([]model.ChartData, len(tallies))
	for i, t := range tallies {
		data := make([]int, len(t.labels))
		for j, label := range t.labels {
			data[j] = t.counts[label]
		}
		out[i] = model.ChartData{
			Labels:   append([]string{}, t.labels...),
			Datasets: []model.ChartDataset{{Label: "Responses", Data: data}},
		}
	}
	return out
}
