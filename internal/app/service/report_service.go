package service

import (
	"context"
	"math"

	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"go.uber.org/zap"
)

type ReportService struct {
	userRepo       repository.UserRepository
	sheetRepo      repository.SheetRepository
	progressRepo   repository.ProgressRepository
	submissionRepo repository.SubmissionRepository
	blogRepo       repository.BlogRepository
	log            *zap.Logger
}

func NewReportService(
	userRepo repository.UserRepository,
	sheetRepo repository.SheetRepository,
	progressRepo repository.ProgressRepository,
	submissionRepo repository.SubmissionRepository,
	blogRepo repository.BlogRepository,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		userRepo:       userRepo,
		sheetRepo:      sheetRepo,
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		blogRepo:       blogRepo,
		log:            log,
	}
}

// SheetReport covers every account, including ones with no progress record,
// which report zero. Completed IDs that no longer match the outline are
// ignored so edited sheets cannot push anyone past 100%.
func (s *ReportService) SheetReport(ctx context.Context, sheetID string) (*model.SheetReport, error) {
	sheet, err := s.sheetRepo.FindByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	difficulties, err := s.sheetRepo.GetProblemDifficulties(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	total := sheet.TotalProblems
	if total == 0 {
		total = len(difficulties)
	}

	totalsByDifficulty := map[model.Difficulty]int{}
	for _, d := range difficulties {
		totalsByDifficulty[d]++
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	completedBySheet, err := s.progressRepo.GetCompletedBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	report := &model.SheetReport{
		SheetID:    sheet.ID,
		SheetTitle: sheet.Title,
		Entries:    make([]model.SheetReportEntry, 0, len(users)),
	}
	for _, user := range users {
		entry := model.SheetReportEntry{
			UserID:       user.ID,
			Username:     user.Username,
			Total:        total,
			ByDifficulty: map[model.Difficulty]model.DifficultyCount{},
		}
		for diff, n := range totalsByDifficulty {
			entry.ByDifficulty[diff] = model.DifficultyCount{Total: n}
		}

		for _, problemID := range completedBySheet[user.ID] {
			diff, ok := difficulties[problemID]
			if !ok {
				continue // Stale completion from an earlier outline
			}
			entry.Completed++
			count := entry.ByDifficulty[diff]
			count.Done++
			entry.ByDifficulty[diff] = count
		}
		if total > 0 {
			entry.Percent = int(math.Round(float64(entry.Completed*100) / float64(total)))
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// GlobalStats aggregates submissions and blog reads per account in memory.
// The tables involved stay small enough that loading them whole beats a
// fan-out of per-user queries.
func (s *ReportService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.ListAllStatuses(ctx)
	if err != nil {
		return nil, err
	}
	reads, err := s.blogRepo.ListAllReads(ctx)
	if err != nil {
		return nil, err
	}
	totalPosts, err := s.blogRepo.CountPosts(ctx)
	if err != nil {
		return nil, err
	}

	subsByUser := map[string][]model.SubmissionStatus{}
	for _, sub := range subs {
		subsByUser[sub.UserID] = append(subsByUser[sub.UserID], sub.Status)
	}
	readsByUser := map[string]int{}
	for _, r := range reads {
		readsByUser[r.UserID]++
	}

	stats := &model.GlobalStats{
		TotalUsers:       len(users),
		TotalSubmissions: len(subs),
		TotalPosts:       totalPosts,
		Entries:          make([]model.GlobalStatsEntry, 0, len(users)),
	}
	for _, user := range users {
		entry := model.GlobalStatsEntry{
			UserID:              user.ID,
			Username:            user.Username,
			SubmissionsByStatus: map[model.SubmissionStatus]int{},
			PostsRead:           readsByUser[user.ID],
		}
		for _, status := range subsByUser[user.ID] {
			entry.Submissions++
			entry.SubmissionsByStatus[status]++
		}
		stats.Entries = append(stats.Entries, entry)
	}
	return stats, nil
}
