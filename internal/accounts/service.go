// Package accounts creates users and proves who they are: passwords,
// one-time codes sent by SMS and external OAuth identities.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"item-server/internal/apperr"
	"item-server/internal/auth"
	"item-server/internal/database"
	"item-server/internal/models"
	"item-server/internal/oauth"
	"item-server/internal/otp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

type RegisterInput struct {
	Email       string  `json:"email" form:"email" validate:"required,email,max=254" example:"a@x.com"`
	Password    string  `json:"password" form:"password" validate:"required,min=8,maxbytes=72" example:"correct horse"`
	Phone       *string `json:"phone,omitempty" form:"phone" validate:"omitempty,e164" example:"+48123456789"`
	DisplayName *string `json:"display_name,omitempty" form:"display_name" validate:"omitempty,max=100"`
}

type Service struct {
	store Store
	otp   otp.Provider
	log   zerolog.Logger
}

func NewService(store Store, otpProvider otp.Provider, log zerolog.Logger) *Service {
	return &Service{store: store, otp: otpProvider, log: log}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	// max counts runes, bcrypt counts bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email address"
		case "e164":
			msg = "must be an E.164 phone number"
		case "min":
			msg = fmt.Sprintf("must be at least %s characters", fe.Param())
		case "max":
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "maxbytes":
			msg = fmt.Sprintf("must be at most %s bytes", fe.Param())
		default:
			msg = "is invalid"
		}
		verr.Add(fe.Field(), msg)
	}
	return verr.OrNil()
}

func (in *RegisterInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	if in.Phone != nil && strings.TrimSpace(*in.Phone) == "" {
		in.Phone = nil
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &name
		if name == "" {
			in.DisplayName = nil
		}
	}
}

// Validate reports every constraint in violates, exactly as Register would.
func (in RegisterInput) Validate() error {
	in.normalize()
	return validateStruct(&in)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, database.CreateUserParams{
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: &hash,
		DisplayName:  in.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// dummyHash keeps the cost of a login for an unknown email equal to that of
// a wrong password.
var dummyHash, _ = auth.HashPassword("item-server-dummy-password")

// Login checks an email and password. Every mismatch is reported as
// apperr.ErrUnauthenticated.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if user == nil || user.PasswordHash == nil {
		auth.CheckPasswordHash(password, dummyHash)
		return nil, apperr.ErrUnauthenticated
	}
	if !auth.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, apperr.ErrUnauthenticated
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrNotFound
	}
	return user, nil
}

// Delete removes the user together with everything they own.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	deleted, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return apperr.ErrNotFound
	}
	s.log.Info().Int64("user_id", userID).Msg("user deleted")
	return nil
}

// StartPhone sends a one-time code to phone.
func (s *Service) StartPhone(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if err := otp.ValidatePhone(phone); err != nil {
		return "", err
	}
	methodID, err := s.otp.Send(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("send one-time code: %w", err)
	}
	return methodID, nil
}

func (s *Service) verifyCode(ctx context.Context, methodID, code string) (string, error) {
	if methodID == "" || code == "" {
		verr := &apperr.ValidationError{}
		if methodID == "" {
			verr.Add("method_id", "is required")
		}
		if code == "" {
			verr.Add("code", "is required")
		}
		return "", verr
	}

	res, err := s.otp.Verify(ctx, methodID, code)
	if err != nil {
		if errors.Is(err, otp.ErrInvalidCode) {
			return "", apperr.ErrUnauthenticated
		}
		return "", fmt.Errorf("verify one-time code: %w", err)
	}
	if !res.Verified {
		return "", apperr.ErrUnauthenticated
	}
	return res.Phone, nil
}

// VerifyPhone signs in the owner of a verified phone. An unknown phone
// creates a new user, which needs an email.
func (s *Service) VerifyPhone(ctx context.Context, methodID, code, email string) (*models.User, error) {
	phone, err := s.verifyCode(ctx, methodID, code)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	if user != nil {
		return user, nil
	}

	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return nil, apperr.Validation("email", "a valid email is required to create an account")
	}

	user, err = s.store.CreateUser(ctx, database.CreateUserParams{Email: email, Phone: &phone})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("user registered by phone")
	return user, nil
}

// LinkPhone attaches a verified phone to an existing user.
func (s *Service) LinkPhone(ctx context.Context, userID int64, methodID, code string) (*models.User, error) {
	phone, err := s.verifyCode(ctx, methodID, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserPhone(ctx, userID, phone); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// ResolveIdentity maps an external identity to a user: a known identity
// wins, then a user with the same verified email gets linked, and
// otherwise a new user is created.
func (s *Service) ResolveIdentity(ctx context.Context, id *oauth.Identity) (*models.User, error) {
	var user *models.User
	err := s.store.RunInTx(ctx, func(q Queries) error {
		existing, err := q.GetIdentity(ctx, id.Provider, id.ProviderUserID)
		if err != nil {
			return fmt.Errorf("get identity: %w", err)
		}
		if existing != nil {
			user, err = q.GetUserByID(ctx, existing.UserID)
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			if user == nil {
				return apperr.ErrNotFound
			}
			return nil
		}

		user, err = q.GetUserByEmail(ctx, id.Email)
		if err != nil {
			return fmt.Errorf("get user by email: %w", err)
		}
		if user != nil && !id.EmailVerified {
			return &apperr.ConflictError{Field: "email"}
		}
		if user == nil {
			var displayName *string
			if id.Name != "" {
				displayName = &id.Name
			}
			user, err = q.CreateUser(ctx, database.CreateUserParams{Email: id.Email, DisplayName: displayName})
			if err != nil {
				return err
			}
		}

		_, err = q.CreateIdentity(ctx, user.ID, id.Provider, id.ProviderUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
