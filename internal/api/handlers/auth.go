package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/arnavk09/campusswap/internal/api/middleware"
	"github.com/arnavk09/campusswap/internal/api/services"
	"github.com/arnavk09/campusswap/internal/auth"
	"github.com/arnavk09/campusswap/internal/models"
	"github.com/arnavk09/campusswap/internal/repositories"
	"github.com/arnavk09/campusswap/internal/utils"
)

// IdentityVerifier is the external identity collaborator (Google).
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*services.GoogleClaims, error)
	ExchangeCode(ctx context.Context, code string) (*services.GoogleClaims, error)
	AuthCodeURL(state string) string
}

// UserStore is the persistence surface the auth routes need.
type UserStore interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, uid, hostel, year, phone string) (*models.User, error)
}

// AuthHandler wraps external identity (Google/Firebase) or local
// email+password records behind first-party bearer tokens.
type AuthHandler struct {
	Users       UserStore
	Identity    IdentityVerifier
	FrontendURL string
}

func NewAuthHandler(users UserStore, identity IdentityVerifier, frontendURL string) *AuthHandler {
	return &AuthHandler{Users: users, Identity: identity, FrontendURL: frontendURL}
}

// POST /api/auth/google
func (h *AuthHandler) GoogleToken(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDToken       string `json:"idToken"`
		FirebaseToken string `json:"firebaseToken"` // SPA legacy field name
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	idToken := input.IDToken
	if idToken == "" {
		idToken = input.FirebaseToken
	}
	if idToken == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Identity token required",
		})
		return
	}

	claims, err := h.Identity.VerifyIDToken(r.Context(), idToken)
	if errors.Is(err, services.ErrIdentityUnavailable) {
		utils.JSONResponse(w, http.StatusServiceUnavailable, utils.Payload{
			Success: false,
			Message: "Identity provider unavailable",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Authentication failed",
		})
		return
	}

	user, isNewUser, err := h.upsertExternalUser(r.Context(), claims)
	if err != nil {
		log.Printf("google auth: %v", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Authentication failed",
		})
		return
	}

	h.respondWithToken(w, http.StatusOK, user, isNewUser)
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "All fields required",
		})
		return
	}

	if _, err := h.Users.FindByEmail(r.Context(), input.Email); err == nil {
		utils.JSONResponse(w, http.StatusConflict, utils.Payload{
			Success: false,
			Message: "User already exists",
		})
		return
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Registration failed",
		})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Registration failed",
		})
		return
	}

	user := &models.User{
		UID:      utils.LocalUID(),
		Email:    input.Email,
		FullName: input.FullName,
		Password: string(hashed),
	}
	if err := h.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			utils.JSONResponse(w, http.StatusConflict, utils.Payload{
				Success: false,
				Message: "User already exists",
			})
			return
		}
		log.Printf("register: %v", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Registration failed",
		})
		return
	}

	h.respondWithToken(w, http.StatusCreated, user, true)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Email and password required",
		})
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), input.Email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Authentication failed",
		})
		return
	}

	// Password login only works for local accounts; external identities
	// carry no hash.
	if user.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	h.respondWithToken(w, http.StatusOK, user, false)
}

// POST /api/auth/complete-profile
func (h *AuthHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Hostel string `json:"hostel"`
		Year   string `json:"year"`
		Phone  string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), middleware.CallerUID(r), input.Hostel, input.Year, input.Phone)
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
		})
		return
	}
	if err != nil {
		log.Printf("complete profile: %v", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to update profile",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"user": user},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.FindByUID(r.Context(), middleware.CallerUID(r))
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to get user",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"user": user},
	})
}

// GET /api/auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := services.EncodeState(map[string]string{"flow": "login"})
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to generate OAuth state",
		})
		return
	}
	http.Redirect(w, r, h.Identity.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if _, err := services.DecodeState(r.FormValue("state")); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid OAuth state",
		})
		return
	}

	claims, err := h.Identity.ExchangeCode(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Printf("google callback: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/auth?error=oauth_failed", http.StatusTemporaryRedirect)
		return
	}

	user, isNewUser, err := h.upsertExternalUser(r.Context(), claims)
	if err != nil {
		log.Printf("google callback: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/auth?error=oauth_failed", http.StatusTemporaryRedirect)
		return
	}

	token, _, err := auth.GenerateToken(user.UID, user.Email)
	if err != nil {
		http.Redirect(w, r, h.FrontendURL+"/auth?error=oauth_failed", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r,
		fmt.Sprintf("%s/auth?token=%s&new=%t", h.FrontendURL, token, isNewUser),
		http.StatusTemporaryRedirect)
}

// upsertExternalUser finds the user for a verified external identity or
// creates one on first login.
func (h *AuthHandler) upsertExternalUser(ctx context.Context, claims *services.GoogleClaims) (*models.User, bool, error) {
	user, err := h.Users.FindByUID(ctx, claims.UID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, err
	}

	fullName := claims.Name
	if fullName == "" {
		fullName = "User"
	}
	user = &models.User{
		UID:      claims.UID,
		Email:    claims.Email,
		FullName: fullName,
		Avatar:   claims.Picture,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *models.User, isNewUser bool) {
	token, _, err := auth.GenerateToken(user.UID, user.Email)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}

	utils.JSONResponse(w, status, utils.Payload{
		Success: true,
		Data: map[string]any{
			"token":     token,
			"user":      user,
			"isNewUser": isNewUser,
		},
	})
}
