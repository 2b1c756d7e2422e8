package service

import (
	"context"
	"time"

	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type ReactionService struct {
	likeRepo    repository.LikeRepository
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	isAdmin     AdminChecker
}

type LikeResponse struct {
	ID         string            `json:"id"`
	AuthorID   string            `json:"authorId"`
	TargetKind models.TargetKind `json:"targetKind"`
	TargetID   string            `json:"targetId"`
	Type       models.LikeType   `json:"type"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ToggleResult reports the outcome of a toggle. Like is the row as it now
// stands, or as it was just before a delete.
type ToggleResult struct {
	Action repository.ToggleAction `json:"action"`
	Like   *LikeResponse           `json:"like"`
}

type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

func NewReactionService(
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	isAdmin AdminChecker,
) *ReactionService {
	return &ReactionService{
		likeRepo:    likeRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		isAdmin:     isAdmin,
	}
}

// requireTarget checks the target shape and that the post or comment exists.
func (s *ReactionService) requireTarget(ctx context.Context, target models.ReactionTarget) error {
	if err := target.Validate(); err != nil {
		return err
	}
	switch target.Kind {
	case models.TargetPost:
		ok, err := s.postRepo.Exists(ctx, target.ID)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrPostNotFound
		}
	case models.TargetComment:
		if _, err := s.commentRepo.ParentOf(ctx, target.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReactionService) requireAuthorAndTarget(ctx context.Context, authorID string, target models.ReactionTarget) error {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return asAuthorNotFound(err)
	}
	return s.requireTarget(ctx, target)
}

// Toggle applies the author's reaction: a first reaction is created, the same
// type again removes it, and the opposite type flips it.
func (s *ReactionService) Toggle(ctx context.Context, authorID string, target models.ReactionTarget, likeType models.LikeType) (result *ToggleResult, err error) {
	ctx, end := observability.StartSpan(ctx, "reaction.toggle",
		attribute.String("target.kind", string(target.Kind)),
		attribute.String("target.id", target.ID),
	)
	defer func() { end(err) }()

	if !likeType.Valid() {
		return nil, models.NewValidationError("Type must be LIKE or DISLIKE")
	}
	if err := s.requireAuthorAndTarget(ctx, authorID, target); err != nil {
		return nil, err
	}

	action, like, err := s.likeRepo.Toggle(ctx, authorID, target, likeType)
	if err != nil {
		return nil, err
	}
	observability.ReactionToggles.WithLabelValues(string(target.Kind), string(action)).Inc()

	return &ToggleResult{Action: action, Like: toLikeResponse(like)}, nil
}

// Create stores a reaction directly; an existing one is a conflict.
func (s *ReactionService) Create(ctx context.Context, authorID string, target models.ReactionTarget, likeType models.LikeType) (*LikeResponse, error) {
	if !likeType.Valid() {
		return nil, models.NewValidationError("Type must be LIKE or DISLIKE")
	}
	if err := s.requireAuthorAndTarget(ctx, authorID, target); err != nil {
		return nil, err
	}

	existing, err := s.likeRepo.FindByAuthorAndTarget(ctx, authorID, target)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateReaction
	}

	like := &models.Like{AuthorID: authorID, Type: likeType}
	like.SetTarget(target)
	if err := s.likeRepo.Create(ctx, like); err != nil {
		return nil, err
	}
	return toLikeResponse(like), nil
}

// FindUserLikeForTarget returns nil when the author has not reacted.
func (s *ReactionService) FindUserLikeForTarget(ctx context.Context, authorID string, target models.ReactionTarget) (*LikeResponse, error) {
	like, err := s.likeRepo.FindByAuthorAndTarget(ctx, authorID, target)
	if err != nil {
		return nil, err
	}
	if like == nil {
		return nil, nil
	}
	return toLikeResponse(like), nil
}

// CountLikesForTarget counts reactions of one type. kind must be "post" or
// "comment"; any other value is INVALID_TARGET_KIND.
func (s *ReactionService) CountLikesForTarget(ctx context.Context, targetID, kind string, likeType models.LikeType) (int64, error) {
	target, err := models.NewReactionTarget(kind, targetID)
	if err != nil {
		return 0, err
	}
	if !likeType.Valid() {
		return 0, models.NewValidationError("Type must be LIKE or DISLIKE")
	}
	return s.likeRepo.Count(ctx, target, likeType)
}

func (s *ReactionService) CountsForTarget(ctx context.Context, target models.ReactionTarget) (*ReactionCounts, error) {
	if err := s.requireTarget(ctx, target); err != nil {
		return nil, err
	}
	likes, err := s.likeRepo.Count(ctx, target, models.LikeTypeLike)
	if err != nil {
		return nil, err
	}
	dislikes, err := s.likeRepo.Count(ctx, target, models.LikeTypeDislike)
	if err != nil {
		return nil, err
	}
	return &ReactionCounts{Likes: likes, Dislikes: dislikes}, nil
}

func (s *ReactionService) Delete(ctx context.Context, likeID, actorID string) error {
	like, err := s.likeRepo.GetByID(ctx, likeID)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, actorID, like.AuthorID, "You can only remove your own reactions"); err != nil {
		return err
	}
	return s.likeRepo.Delete(ctx, likeID)
}

func toLikeResponse(l *models.Like) *LikeResponse {
	if l == nil {
		return nil
	}
	resp := &LikeResponse{
		ID:        l.ID,
		AuthorID:  l.AuthorID,
		Type:      l.Type,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if target, err := l.Target(); err == nil {
		resp.TargetKind = target.Kind
		resp.TargetID = target.ID
	}
	return resp
}
