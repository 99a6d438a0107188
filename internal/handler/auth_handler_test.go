package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	body := &model.RegisterRequest{
		Role:       "consumer",
		Name:       "Maria Souza",
		Email:      "maria@example.com",
		NationalID: "529.982.247-25",
		Password:   "colheita2026",
	}

	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusCreated},
		{name: "Duplicate email", mockError: model.ErrDuplicateAccount, expectedStatus: http.StatusConflict},
		{name: "Bad CPF", mockError: model.NewValidationError("invalid CPF"), expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			handler := NewAuthHandler(mockService, zerolog.Nop())

			var ret *model.AccountResponse
			if tt.mockError == nil {
				ret = &model.AccountResponse{Account: model.Account{
					ID: uuid.New(), Role: model.RoleConsumer, Email: body.Email, PasswordHash: "$2a$10$secret",
				}}
			}
			mockService.On("Register", mock.Anything, body).Return(ret, tt.mockError)

			req := newRequest(t, http.MethodPost, "/api/auth/register", body, nil)
			w := httptest.NewRecorder()

			handler.Register(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "secret")
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	creds := &model.LoginRequest{Email: "maria@example.com", Password: "colheita2026"}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAuthHandler(mockService, zerolog.Nop())

		resp := &model.LoginResponse{Token: "signed.jwt.token", ExpiresAt: time.Now().Add(time.Hour), Role: model.RoleConsumer}
		mockService.On("Login", mock.Anything, creds).Return(resp, nil)

		req := newRequest(t, http.MethodPost, "/api/auth/login", creds, nil)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got model.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "signed.jwt.token", got.Token)
	})

	t.Run("Wrong password", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAuthHandler(mockService, zerolog.Nop())

		mockService.On("Login", mock.Anything, creds).Return(nil, model.ErrInvalidCredentials)

		req := newRequest(t, http.MethodPost, "/api/auth/login", creds, nil)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, model.ErrCodeInvalidCredentials, decodeError(t, w).Error)
	})
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	caller := principal(model.RoleProducer)

	t.Run("Logout", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAuthHandler(mockService, zerolog.Nop())

		mockService.On("Logout", mock.Anything, caller).Return(nil)

		req := newRequest(t, http.MethodPost, "/api/auth/logout", nil, caller)
		w := httptest.NewRecorder()

		handler.Logout(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Me", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAuthHandler(mockService, zerolog.Nop())

		mockService.On("Me", mock.Anything, caller).Return(&model.AccountResponse{
			Account:  model.Account{ID: caller.AccountID, Role: model.RoleProducer},
			Producer: &model.ProducerProfile{AccountID: caller.AccountID, FarmName: "Sítio Boa Vista"},
		}, nil)

		req := newRequest(t, http.MethodGet, "/api/me", nil, caller)
		w := httptest.NewRecorder()

		handler.Me(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sítio Boa Vista")
	})

	t.Run("Me without principal", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAuthHandler(mockService, zerolog.Nop())

		mockService.On("Me", mock.Anything, (*model.Principal)(nil)).Return(nil, model.ErrUnauthorised)

		req := newRequest(t, http.MethodGet, "/api/me", nil, nil)
		w := httptest.NewRecorder()

		handler.Me(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
