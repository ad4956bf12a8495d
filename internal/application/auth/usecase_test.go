package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/apptest"
	"github.com/tu-usuario/stock-ledger/internal/application/auth"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	pkgjwt "github.com/tu-usuario/stock-ledger/pkg/jwt"
)

func newAuthUseCase() *auth.AuthUseCase {
	return auth.NewAuthUseCase(apptest.NewUserStore(), auth.JWTConfig{
		Secret:     "test-secret",
		ExpMinutes: 60,
		Issuer:     "stock-ledger-test",
	})
}

func TestRegisterUser_HasheaYNoExponePassword(t *testing.T) {
	uc := newAuthUseCase()

	out, err := uc.RegisterUser(dto.RegisterRequest{
		Email:    "marta@example.com",
		Password: "super-secreta-123",
		Name:     "Marta",
		Role:     "bodeguero",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "marta@example.com", out.Email)
	assert.Equal(t, "bodeguero", out.Role)
	assert.Equal(t, "active", out.Status)
}

func TestRegisterUser_EmailDuplicado(t *testing.T) {
	uc := newAuthUseCase()

	req := dto.RegisterRequest{Email: "marta@example.com", Password: "super-secreta-123"}
	_, err := uc.RegisterUser(req)
	require.NoError(t, err)

	_, err = uc.RegisterUser(req)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLogin_CredencialesValidasDevuelvenTokenConClaims(t *testing.T) {
	uc := newAuthUseCase()
	registered, err := uc.RegisterUser(dto.RegisterRequest{
		Email:    "carlos@example.com",
		Password: "super-secreta-123",
		Role:     "admin",
	})
	require.NoError(t, err)

	out, err := uc.Login(dto.LoginRequest{Email: "carlos@example.com", Password: "super-secreta-123"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)

	userID, role, err := pkgjwt.Parse("test-secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
	assert.Equal(t, "admin", role)
}

func TestLogin_PasswordIncorrecta(t *testing.T) {
	uc := newAuthUseCase()
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "carlos@example.com", Password: "super-secreta-123"})
	require.NoError(t, err)

	_, err = uc.Login(dto.LoginRequest{Email: "carlos@example.com", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc := newAuthUseCase()
	_, err := uc.Login(dto.LoginRequest{Email: "nadie@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
