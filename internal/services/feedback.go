package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

const maxCommentLength = 2000

type FeedbackService interface {
	// Rate stores a 1..5 score; rating the same model again replaces the score.
	Rate(ctx context.Context, userID, modelID uuid.UUID, score int) (*types.Rating, error)
	Comment(ctx context.Context, userID, modelID uuid.UUID, text string) (*types.Comment, error)
	// ListComments returns every comment to admins and approved comments to everyone else.
	ListComments(ctx context.Context, userID, modelID uuid.UUID) ([]*types.Comment, error)
	Moderate(ctx context.Context, adminID, commentID uuid.UUID, approved bool) error
}

type feedbackService struct {
	log      *logger.Logger
	gate     PermissionGate
	models   repos.ModelRepo
	ratings  repos.RatingRepo
	comments repos.CommentRepo
}

func NewFeedbackService(
	log *logger.Logger,
	gate PermissionGate,
	models repos.ModelRepo,
	ratings repos.RatingRepo,
	comments repos.CommentRepo,
) FeedbackService {
	return &feedbackService{
		log:      log.With("service", "FeedbackService"),
		gate:     gate,
		models:   models,
		ratings:  ratings,
		comments: comments,
	}
}

func (s *feedbackService) requireModel(ctx context.Context, op string, modelID uuid.UUID) error {
	m, err := s.models.GetByID(dbctx.Context{Ctx: ctx}, modelID)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if m == nil {
		return domainagg.NotFound(op, "model", modelID)
	}
	return nil
}

func (s *feedbackService) Rate(ctx context.Context, userID, modelID uuid.UUID, score int) (*types.Rating, error) {
	const op = "FeedbackService.Rate"
	if _, err := s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return nil, err
	}
	if score < 1 || score > 5 {
		return nil, domainagg.Invalid(op, "rating must be between 1 and 5")
	}
	if err := s.requireModel(ctx, op, modelID); err != nil {
		return nil, err
	}
	row := &types.Rating{UserID: userID, ModelID: modelID, Rating: score}
	if err := s.ratings.Upsert(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return row, nil
}

func (s *feedbackService) Comment(ctx context.Context, userID, modelID uuid.UUID, text string) (*types.Comment, error) {
	const op = "FeedbackService.Comment"
	if _, err := s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainagg.Invalid(op, "comment text is required")
	}
	if len(text) > maxCommentLength {
		return nil, domainagg.Invalid(op, "comment text is too long")
	}
	if err := s.requireModel(ctx, op, modelID); err != nil {
		return nil, err
	}
	row := &types.Comment{UserID: userID, ModelID: modelID, Text: text}
	if err := s.comments.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return row, nil
}

func (s *feedbackService) ListComments(ctx context.Context, userID, modelID uuid.UUID) ([]*types.Comment, error) {
	const op = "FeedbackService.ListComments"
	u, err := s.gate.Require(ctx, op, userID, roles.Visitor)
	if err != nil {
		return nil, err
	}
	if err := s.requireModel(ctx, op, modelID); err != nil {
		return nil, err
	}
	approvedOnly := !u.Level().AtLeast(roles.Admin)
	out, err := s.comments.ListByModel(dbctx.Context{Ctx: ctx}, modelID, approvedOnly)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *feedbackService) Moderate(ctx context.Context, adminID, commentID uuid.UUID, approved bool) error {
	const op = "FeedbackService.Moderate"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	c, err := s.comments.GetByID(dbc, commentID)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if c == nil {
		return domainagg.NotFound(op, "comment", commentID)
	}
	if err := s.comments.SetApproved(dbc, commentID, approved); err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	s.log.Info("Comment moderated", "comment_id", commentID, "approved", approved, "admin_id", adminID)
	return nil
}
