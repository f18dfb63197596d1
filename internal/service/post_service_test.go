package service

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"Short Content", "hi", "hi..."},
		{"Strips Tags", "<p>World</p>", "World..."},
		{"Nested Tags", `<div><a href="x">link</a> text</div>`, "link text..."},
		{"Empty", "", "..."},
		{"Exactly 200", strings.Repeat("a", 200), strings.Repeat("a", 200) + "..."},
		{"Truncates Stripped Text", "<b>" + strings.Repeat("a", 250) + "</b>", strings.Repeat("a", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.content))
		})
	}
}

func TestListPosts_Summaries(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo)
	ctx := context.Background()

	repo.On("List", mock.Anything, 20, 0).Return([]*models.Post{
		{ID: 2, Title: "Second", Content: "<p>World</p>", UserID: 1, User: models.User{ID: 1, Username: "alice"}},
		{ID: 1, Title: "First", Content: "hi", UserID: 1, User: models.User{ID: 1, Username: "alice"}},
	}, nil)

	summaries, err := svc.ListPosts(ctx, ListPostsInput{Limit: 20, Offset: 0})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "World...", summaries[0].Summary)
	assert.Equal(t, "hi...", summaries[1].Summary)
	assert.Equal(t, "alice", summaries[0].Author)
}

// The list cache key carries no limit, so only the default first page may be
// cached; a small page cached first must never be handed to a larger request.
func TestListPosts_CacheScopedToDefaultPage(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	all := []*models.Post{
		{ID: 2, Title: "Second", Content: "b", UserID: 1, User: models.User{ID: 1, Username: "alice"}},
		{ID: 1, Title: "First", Content: "a", UserID: 1, User: models.User{ID: 1, Username: "alice"}},
	}

	repo := new(MockPostRepository)
	repo.On("List", mock.Anything, 1, 0).Return(all[:1], nil).Once()
	repo.On("List", mock.Anything, 100, 0).Return(all, nil).Once()
	repo.On("List", mock.Anything, DefaultListLimit, 0).Return(all, nil).Once()
	svc := NewPostService(repo)

	small, err := svc.ListPosts(ctx, ListPostsInput{Limit: 1, Offset: 0})
	require.NoError(t, err)
	require.Len(t, small, 1)

	// The limit=1 result must not satisfy a larger page
	large, err := svc.ListPosts(ctx, ListPostsInput{Limit: 100, Offset: 0})
	require.NoError(t, err)
	require.Len(t, large, 2)

	// The default page is cached: two calls, one repository hit
	first, err := svc.ListPosts(ctx, ListPostsInput{Limit: DefaultListLimit, Offset: 0})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ListPosts(ctx, ListPostsInput{Limit: DefaultListLimit, Offset: 0})
	require.NoError(t, err)
	require.Len(t, second, 2)

	repo.AssertExpectations(t)
}

func TestCreatePost_Validation(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Title: "", Content: "body"})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestUpdatePost_Ownership(t *testing.T) {
	ctx := context.Background()
	existing := &models.Post{ID: 5, Title: "Old", Content: "Old body", UserID: 1}

	tests := []struct {
		name      string
		requester uint
		mockSetup func(repo *MockPostRepository)
		wantCode  string
	}{
		{
			name:      "Not Found Before Ownership",
			requester: 2,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(nil, models.NewNotFoundError("Post", 5))
			},
			wantCode: "NOT_FOUND",
		},
		{
			name:      "Not Author",
			requester: 2,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
			},
			wantCode: "FORBIDDEN",
		},
		{
			name:      "Author Succeeds",
			requester: 1,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
				repo.On("Update", mock.Anything, mock.Anything).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			tt.mockSetup(repo)
			svc := NewPostService(repo)

			post, err := svc.UpdatePost(ctx, UpdatePostInput{
				RequesterID: tt.requester,
				PostID:      5,
				Title:       "New",
				Content:     "New body",
			})
			if tt.wantCode != "" {
				require.Error(t, err)
				appErr, ok := err.(*models.AppError)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, appErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "New", post.Title)
			assert.Equal(t, "New body", post.Content)
		})
	}
}

func TestDeletePost_Ownership(t *testing.T) {
	ctx := context.Background()
	existing := &models.Post{ID: 5, UserID: 1}

	t.Run("Not Author", func(t *testing.T) {
		repo := new(MockPostRepository)
		repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		svc := NewPostService(repo)

		err := svc.DeletePost(ctx, 2, 5)
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "FORBIDDEN", appErr.Code)
		repo.AssertNotCalled(t, "Delete")
	})

	t.Run("Author Succeeds", func(t *testing.T) {
		repo := new(MockPostRepository)
		repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		repo.On("Delete", mock.Anything, uint(5)).Return(nil)
		svc := NewPostService(repo)

		assert.NoError(t, svc.DeletePost(ctx, 1, 5))
	})
}
