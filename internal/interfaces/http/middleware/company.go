package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/infrastructure/auth"
	"github.com/quick-ledger/ottero/internal/infrastructure/logger"
	"github.com/quick-ledger/ottero/internal/interfaces/http/dto"
)

// Context and header keys for the company a request acts for
const (
	CompanyIDKey    = "company_id"
	CompanyIDHeader = "X-Company-ID"

	companyUUIDKey = "company_uuid"
)

// CompanyVerifier resolves a bearer token to a company
type CompanyVerifier interface {
	VerifyCompany(token string) (uuid.UUID, error)
}

// CompanyScope resolves the company of each request. With a verifier the
// company comes from the bearer token's tenant_id claim; without one it is
// read from the X-Company-ID header. Requests without a company are rejected.
func CompanyScope(verifier CompanyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			companyID uuid.UUID
			err       error
		)
		if verifier != nil {
			companyID, err = companyFromToken(c, verifier)
		} else {
			companyID, err = companyFromHeader(c)
		}
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(CompanyIDKey, companyID.String())
		c.Set(companyUUIDKey, companyID)
		ctx, _ := logger.WithCompanyID(c.Request.Context(), logger.FromContext(c.Request.Context()), companyID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetCompanyID returns the company resolved by CompanyScope
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(companyUUIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

var (
	errMissingToken   = errors.New("authorization header is required")
	errMalformedToken = errors.New("authorization header must be a bearer token")
	errMissingCompany = errors.New(CompanyIDHeader + " header is required")
	errInvalidCompany = errors.New(CompanyIDHeader + " header must be a UUID")
)

func companyFromToken(c *gin.Context, verifier CompanyVerifier) (uuid.UUID, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return uuid.Nil, errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return uuid.Nil, errMalformedToken
	}
	return verifier.VerifyCompany(strings.TrimSpace(token))
}

func companyFromHeader(c *gin.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(CompanyIDHeader))
	if raw == "" {
		return uuid.Nil, errMissingCompany
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errInvalidCompany
	}
	return id, nil
}

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := err.Error()
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
