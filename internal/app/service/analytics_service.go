package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"
)

// trendDays is the length of the completion trend, today included.
const trendDays = 7

type AnalyticsService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	now      func() time.Time
}

func NewAnalyticsService(userRepo repository.UserRepository, taskRepo repository.TaskRepository) *AnalyticsService {
	return &AnalyticsService{userRepo: userRepo, taskRepo: taskRepo, now: time.Now}
}

func (s *AnalyticsService) Overview(ctx context.Context) (*model.Overview, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	counts, err := s.taskRepo.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	total := counts.Completed + counts.InProgress + counts.NotStarted
	return &model.Overview{
		TotalUsers:     users,
		TotalTasks:     total,
		CompletedTasks: counts.Completed,
		CompletionRate: completionRate(counts.Completed, total),
	}, nil
}

// completionRate is a percentage rounded to two decimals.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}

func (s *AnalyticsService) TaskStatus(ctx context.Context) (model.TaskStatusCounts, error) {
	counts, err := s.taskRepo.StatusCounts(ctx)
	if err != nil {
		return model.TaskStatusCounts{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return counts, nil
}

// CompletionTrend counts completions per UTC day over the last week, oldest
// day first and ending today.
func (s *AnalyticsService) CompletionTrend(ctx context.Context) ([]model.DailyCompletion, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]model.DailyCompletion, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		n, err := s.taskRepo.CountCompletedBetween(ctx, from, from.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("failed to count completions for %s: %w", from.Format(time.DateOnly), err)
		}
		out = append(out, model.DailyCompletion{Date: from.Format(time.DateOnly), CompletedTasks: n})
	}
	return out, nil
}

func (s *AnalyticsService) UserActivity(ctx context.Context) ([]model.UserTaskSummary, error) {
	summaries, err := s.taskRepo.UserSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize users: %w", err)
	}
	// The activity view is keyed by user only.
	for i := range summaries {
		summaries[i].Email = ""
		summaries[i].Role = ""
	}
	return summaries, nil
}
