package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/security"
	"github.com/threadlane/storefront-go/pkg/types"
	"gorm.io/gorm"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required"))
		return
	}
	if len(req.Password) < 6 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters"))
		return
	}

	var existing userRecord
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeConflict, "email already registered"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account"))
		return
	}

	hash, err := security.HashPassword(req.Password, security.DefaultParams())
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password"))
		return
	}

	record := userRecord{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         string(enums.RoleCustomer),
		Phone:        req.Phone,
		CreatedAt:    s.now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account"))
		return
	}

	s.respondWithSession(w, r, record, http.StatusCreated, "registration successful")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var record userRecord
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.db.Where("email = ?", email).First(&record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"))
		return
	}

	ok, err := security.VerifyPassword(req.Password, record.PasswordHash)
	if err != nil || !ok {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"))
		return
	}

	s.respondWithSession(w, r, record, http.StatusOK, "login successful")
}

func (s *Server) respondWithSession(w http.ResponseWriter, r *http.Request, record userRecord, status int, message string) {
	token, err := mintToken(s.cfg, s.now(), record.ID, enums.Role(record.Role))
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
		return
	}
	s.writeJSON(w, status, map[string]any{
		"message": message,
		"token":   token,
		"user":    record.toUser(),
	})
}

func (s *Server) currentUser(r *http.Request) (*userRecord, error) {
	id := userIDFrom(r.Context())
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	var record userRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	return &record, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	record, err := s.currentUser(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": record.toUser()})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	record, err := s.currentUser(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req types.User
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.Name != "" {
		record.Name = req.Name
	}
	if req.Phone != "" {
		record.Phone = req.Phone
	}
	if req.Addresses != nil {
		record.Addresses = req.Addresses
	}

	if err := s.db.Save(record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    record.toUser(),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	record, err := s.currentUser(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req changePasswordRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	ok, err := security.VerifyPassword(req.CurrentPassword, record.PasswordHash)
	if err != nil || !ok {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect"))
		return
	}
	if len(req.NewPassword) < 6 {
		s.writeError(r.Context(), w, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters"))
		return
	}

	hash, err := security.HashPassword(req.NewPassword, security.DefaultParams())
	if err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password"))
		return
	}
	record.PasswordHash = hash
	if err := s.db.Save(record).Error; err != nil {
		s.writeError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
