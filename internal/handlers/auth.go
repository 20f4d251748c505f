package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/anonto42/research-hub/backend/pkg/mailer"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests. Credentials
// live in PostgreSQL; the researcher profile document is created in
// MongoDB on first successful authentication.
type AuthHandler struct {
	accountRepository repositories.AccountRepository
	userRepository    repositories.UserRepository
	firebaseAuth      *auth.Client
	mailer            *mailer.Mailer
	jwtSecret         string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accountRepo repositories.AccountRepository, userRepo repositories.UserRepository, firebaseAuthClient *auth.Client, m *mailer.Mailer, jwtSecret string) *AuthHandler {
	if jwtSecret == "" {
		jwtSecret = "supersecretjwtkey"
	}
	return &AuthHandler{
		accountRepository: accountRepo,
		userRepository:    userRepo,
		firebaseAuth:      firebaseAuthClient,
		mailer:            m,
		jwtSecret:         jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Register links an already verified Firebase UID to an account without
// re-checking the ID token (legacy clients that verified on-device)
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.accountRepository.GetByFirebaseUID(req.FirebaseUID); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Account with this Firebase UID already registered")
	}

	account := &models.Account{Email: req.Email, FirebaseUID: &req.FirebaseUID}
	if err := h.accountRepository.CreateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := &models.User{UID: req.FirebaseUID, Name: req.Name, Email: req.Email}
	if err := h.userRepository.EnsureUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.sendWelcome(req.Email, req.Name)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"uid": req.FirebaseUID}})
}

// Signup handles local registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Check if an account with this email already exists
	if _, err := h.accountRepository.GetByEmail(req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Account with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	account := &models.Account{
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.accountRepository.CreateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Local accounts use "local-<id>" as profile UID so they share the
	// same keyspace as Firebase UIDs without colliding.
	uid := localUID(account.ID)
	user := &models.User{UID: uid, Name: req.Name, Email: req.Email}
	if err := h.userRepository.EnsureUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.sendWelcome(req.Email, req.Name)

	token, err := h.generateJWT(uid, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}

	return c.JSON(http.StatusCreated, echo.Map{"token": token, "uid": uid})
}

// SignIn handles local authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accountRepository.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	uid := localUID(account.ID)
	if account.FirebaseUID != nil && *account.FirebaseUID != "" {
		uid = *account.FirebaseUID
	}

	token, err := h.generateJWT(uid, account.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "uid": uid})
}

// FirebaseLogin verifies a Firebase ID token, provisions the account and
// profile on first login, and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = email
	}

	firstLogin := false
	if _, err := h.accountRepository.GetByFirebaseUID(firebaseUID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		account := &models.Account{Email: email, FirebaseUID: &firebaseUID}
		if err := h.accountRepository.CreateAccount(account); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		firstLogin = true
	}

	user := &models.User{UID: firebaseUID, Name: name, Email: email}
	if err := h.userRepository.EnsureUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if firstLogin {
		go h.sendWelcome(email, name)
	}

	localToken, err := h.generateJWT(firebaseUID, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": localToken, "uid": firebaseUID})
}

func (h *AuthHandler) sendWelcome(email, name string) {
	if h.mailer == nil || email == "" {
		return
	}
	if err := h.mailer.SendWelcome(email, name); err != nil {
		log.Printf("auth: failed to send welcome email to %s: %v", email, err)
	}
}

// generateJWT creates a signed JWT for the given identity
func (h *AuthHandler) generateJWT(uid, email string) (string, error) {
	claims := &models.JwtCustomClaims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func localUID(accountID uint) string {
	return "local-" + strconv.FormatUint(uint64(accountID), 10)
}
