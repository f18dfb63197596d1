package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newAuthService(repo *MockUserRepository) *AuthService {
	return NewAuthService(repo, token.NewManager("test-secret", time.Hour))
}

func TestSignup_HashesPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)
	ctx := context.Background()

	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	// Stored credential is never the plaintext
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))
}

func TestSignup_Conflicts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mockSetup func(repo *MockUserRepository)
	}{
		{
			name: "Username Taken",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(&models.User{ID: 1}, nil)
			},
		},
		{
			name: "Email Taken",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
				repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&models.User{ID: 2}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			svc := newAuthService(repo)

			_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
			require.Error(t, err)

			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, "CONFLICT", appErr.Code)
		})
	}
}

func TestSignup_Validation(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "", Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 1, Username: "alice", Email: "a@x.com", Password: string(hash)}

	tests := []struct {
		name       string
		identifier string
		password   string
		mockSetup  func(repo *MockUserRepository)
		wantErr    string
	}{
		{
			name:       "Success By Email",
			identifier: "a@x.com",
			password:   "secret1",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "a@x.com").Return(stored, nil)
			},
		},
		{
			name:       "Success By Username",
			identifier: "alice",
			password:   "secret1",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "alice").Return(nil, nil)
				repo.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
			},
		},
		{
			name:       "Unknown Identifier",
			identifier: "nobody",
			password:   "secret1",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "nobody").Return(nil, nil)
				repo.On("GetByUsername", mock.Anything, "nobody").Return(nil, nil)
			},
			wantErr: "Invalid credentials",
		},
		{
			name:       "Wrong Password",
			identifier: "a@x.com",
			password:   "wrong",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", mock.Anything, "a@x.com").Return(stored, nil)
			},
			wantErr: "Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			svc := newAuthService(repo)

			user, tok, err := svc.Login(ctx, tt.identifier, tt.password)
			if tt.wantErr != "" {
				require.Error(t, err)
				// Both failure causes surface the same message
				appErr, ok := err.(*models.AppError)
				require.True(t, ok)
				assert.Equal(t, tt.wantErr, appErr.Message)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, stored.ID, user.ID)
			assert.NotEmpty(t, tok)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	tokens := token.NewManager("test-secret", time.Hour)

	valid, err := tokens.Issue(1)
	require.NoError(t, err)

	expired, err := token.NewManager("test-secret", -time.Minute).Issue(1)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		mockSetup func(repo *MockUserRepository)
		wantErr   string
	}{
		{
			name:      "Missing Token",
			token:     "",
			mockSetup: func(repo *MockUserRepository) {},
			wantErr:   "Missing token",
		},
		{
			name:      "Malformed Token",
			token:     "garbage",
			mockSetup: func(repo *MockUserRepository) {},
			wantErr:   "Invalid or expired token",
		},
		{
			name:      "Expired Token",
			token:     expired,
			mockSetup: func(repo *MockUserRepository) {},
			wantErr:   "Invalid or expired token",
		},
		{
			name:  "User Deleted",
			token: valid,
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByID", mock.Anything, uint(1)).Return(nil, models.NewNotFoundError("User", 1))
			},
			wantErr: "User not found",
		},
		{
			name:  "Success",
			token: valid,
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Username: "alice"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			svc := NewAuthService(repo, tokens)

			user, err := svc.Authenticate(ctx, tt.token)
			if tt.wantErr != "" {
				require.Error(t, err)
				appErr, ok := err.(*models.AppError)
				require.True(t, ok)
				assert.Equal(t, "UNAUTHORIZED", appErr.Code)
				assert.Equal(t, tt.wantErr, appErr.Message)
				return
			}

			require.NoError(t, err)
			// User is re-read from the store, not decoded from the claim
			assert.Equal(t, "alice", user.Username)
		})
	}
}
