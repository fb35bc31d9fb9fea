package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type MockUserRepo struct {
	byEmail map[string]*user.User
}

func (m *MockUserRepo) Create(ctx context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	copied := *u
	m.byEmail[u.Email] = &copied
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepo) List(ctx context.Context) ([]user.User, error) { return nil, nil }

func (m *MockUserRepo) Update(ctx context.Context, id string, fields bson.M) (*user.User, error) {
	return nil, nil
}

func (m *MockUserRepo) Names(ctx context.Context, ids []string) (map[string]string, error) {
	return nil, nil
}

type MockRoleRepo struct {
	roles map[string]string
}

func (m *MockRoleRepo) FindByUser(ctx context.Context, userID string) (string, error) {
	return m.roles[userID], nil
}

func (m *MockRoleRepo) All(ctx context.Context) (map[string]string, error) { return m.roles, nil }

func (m *MockRoleRepo) Insert(ctx context.Context, role *user.UserRole) error {
	m.roles[role.UserID] = role.Role
	return nil
}

func (m *MockRoleRepo) DeleteByUser(ctx context.Context, userID string) error {
	delete(m.roles, userID)
	return nil
}

func newService() (*AuthServiceImpl, *MockUserRepo, *MockRoleRepo) {
	users := &MockUserRepo{byEmail: map[string]*user.User{}}
	roles := &MockRoleRepo{roles: map[string]string{}}
	svc := NewAuthService(users, roles, realtime.NewHub(zap.NewNop()), zap.NewNop()).(*AuthServiceImpl)
	return svc, users, roles
}

func TestRegisterThenLogin(t *testing.T) {
	utils.SetSecret("test-secret")
	svc, _, roles := newService()

	u, err := svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "Ana@Imob.com", Senha: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleCorretor, roles.roles[u.ID])

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ana@imob.com", Senha: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)

	claims, err := utils.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "ana@imob.com", claims.Email)
	assert.Equal(t, user.RoleCorretor, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "ana@imob.com", Senha: "123"})
	require.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "ana@imob.com", Senha: "segredo1"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "ana@imob.com", Senha: "segredo1"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestLoginFailures(t *testing.T) {
	svc, users, roles := newService()
	_, err := svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "ana@imob.com", Senha: "segredo1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ana@imob.com", Senha: "errada"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "bia@imob.com", Senha: "segredo1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored := users.byEmail["ana@imob.com"]
	delete(roles.roles, stored.ID)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ana@imob.com", Senha: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleCorretor, resp.User.Role)

	stored.Ativo = false
	_, err = svc.Login(context.Background(), LoginRequest{Email: "ana@imob.com", Senha: "segredo1"})
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestLoginEndpoint(t *testing.T) {
	utils.SetSecret("test-secret")
	svc, _, _ := newService()
	_, err := svc.Register(context.Background(), RegisterRequest{Nome: "Ana", Email: "ana@imob.com", Senha: "segredo1"})
	require.NoError(t, err)

	app := fiber.New()
	NewAuthApi(NewAuthController(svc)).Setup(app)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email":"ana@imob.com","senha":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/register", strings.NewReader(`{"nome":"Ana","email":"ana@imob.com","senha":"segredo1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email":"ana@imob.com","senha":"segredo1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"token":"`)
	assert.NotContains(t, string(body), "password_hash")
}
