package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"study-portal/internal/domain"

	"github.com/google/uuid"
)

// IssueTypes lists the accepted report categories.
var IssueTypes = []string{"bug", "feature", "content", "performance", "other"}

// NewIssue is the input of Report.
type NewIssue struct {
	IssueType   string
	Title       string
	Description string
}

type IssueService struct {
	store IssueRepository
	now   func() time.Time
}

func NewIssueService(store IssueRepository) *IssueService {
	return &IssueService{store: store, now: time.Now}
}

// Report files an issue on behalf of the caller.
func (s *IssueService) Report(ctx context.Context, id domain.Identity, input NewIssue) (domain.IssueReport, error) {
	if err := requireIdentity(id); err != nil {
		return domain.IssueReport{}, err
	}
	issueType := strings.ToLower(strings.TrimSpace(input.IssueType))
	if !validIssueType(issueType) {
		return domain.IssueReport{}, fmt.Errorf("unknown issue type %q: %w", input.IssueType, domain.ErrInvalidInput)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return domain.IssueReport{}, fmt.Errorf("title and description are required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	report, err := s.store.InsertIssue(ctx, domain.IssueReport{
		ID:          uuid.NewString(),
		UserID:      id.ID,
		UserName:    id.StatsName(),
		IssueType:   issueType,
		Title:       title,
		Description: description,
		Status:      domain.IssueStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.IssueReport{}, domain.Remote("report issue", err)
	}
	return report, nil
}

// ListMine returns the caller's reports, newest first.
func (s *IssueService) ListMine(ctx context.Context, id domain.Identity) ([]domain.IssueReport, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	reports, err := s.store.ListIssues(ctx, id.ID)
	if err != nil {
		return nil, domain.Remote("list issues", err)
	}
	return reports, nil
}

func validIssueType(t string) bool {
	for _, known := range IssueTypes {
		if t == known {
			return true
		}
	}
	return false
}
