package service

import (
	"context"
	"regexp"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// summaryLength is the number of characters of stripped content kept in a
// list-view summary.
const summaryLength = 200

// DefaultListLimit is the page size list endpoints use when the request
// does not specify one.
const DefaultListLimit = 20

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PostService implements post CRUD with author-only mutation.
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// CreatePostInput carries the fields required to create a post.
type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
}

// UpdatePostInput carries the fields of an update request.
type UpdatePostInput struct {
	RequesterID uint
	PostID      uint
	Title       string
	Content     string
}

// ListPostsInput holds pagination for list queries.
type ListPostsInput struct {
	Limit  int
	Offset int
}

// ListPosts returns post summaries, newest first (ties broken by id).
// Only the default first page is served through the cache; the key carries
// no limit, so caching any other page size would hand its truncated result
// to every later request.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.PostSummary, error) {
	var posts []*models.Post
	var err error

	if in.Offset == 0 && in.Limit == DefaultListLimit {
		err = cache.Aside(ctx, cache.PostsListKey(), &posts, cache.ListTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, in.Limit, in.Offset)
			return fetchErr
		})
	} else {
		posts, err = s.postRepo.List(ctx, in.Limit, in.Offset)
	}
	if err != nil {
		return nil, err
	}

	return summarize(posts), nil
}

// ListPostsByAuthor returns one author's post summaries, same shape and
// ordering as ListPosts.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uint, in ListPostsInput) ([]models.PostSummary, error) {
	posts, err := s.postRepo.ListByUser(ctx, authorID, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	return summarize(posts), nil
}

// GetPost returns the full post with its author resolved.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// CreatePost validates and persists a new post owned by the author.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if errs := validation.PostInput(in.Title, in.Content); len(errs) > 0 {
		return nil, models.NewValidationError(errs[0].Message)
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.AuthorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Re-read so the response carries the author join and timestamps.
	return s.postRepo.GetByID(ctx, post.ID)
}

// UpdatePost overwrites title and content. Existence is checked before
// ownership, so a missing post is always a 404 regardless of requester.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.RequesterID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if errs := validation.PostInput(in.Title, in.Content); len(errs) > 0 {
		return nil, models.NewValidationError(errs[0].Message)
	}

	post.Title = in.Title
	post.Content = in.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost permanently removes the post after the same existence and
// ownership checks as UpdatePost.
func (s *PostService) DeletePost(ctx context.Context, requesterID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.UserID != requesterID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, postID)
}

func summarize(posts []*models.Post) []models.PostSummary {
	summaries := make([]models.PostSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, models.PostSummary{
			ID:        p.ID,
			Title:     p.Title,
			Summary:   Summary(p.Content),
			UserID:    p.UserID,
			Author:    p.User.Username,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return summaries
}

// Summary strips markup tags from content, truncates the stripped text to
// its first 200 characters and appends an ellipsis. The ellipsis is always
// appended, even when nothing was truncated.
func Summary(content string) string {
	stripped := tagPattern.ReplaceAllString(content, "")
	runes := []rune(stripped)
	if len(runes) > summaryLength {
		runes = runes[:summaryLength]
	}
	return string(runes) + "..."
}
