package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quick-ledger/ottero/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gte0,amount"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"amount"`
	TaxRate   int             `json:"tax_rate" binding:"tax_rate"`
}

type documentInput struct {
	Kind  string      `json:"kind" binding:"required,oneof=QUOTE INVOICE"`
	Email string      `json:"email" binding:"omitempty,email"`
	Items []lineInput `json:"items" binding:"omitempty,dive"`
}

func validationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/documents", func(c *gin.Context) {
		var req documentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postDocument(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	validationRouter().ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSetupValidator_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}

func TestValidation_AcceptsValidDocument(t *testing.T) {
	w, resp := postDocument(t, `{"kind":"QUOTE","items":[{"quantity":"2.5","unit_price":"-19.9999","tax_rate":10},{"quantity":"0","tax_rate":0}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestValidation_BillingTags(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantMsg   string
	}{
		{"negative quantity", `{"kind":"QUOTE","items":[{"quantity":"-1","tax_rate":10}]}`, "items[0].quantity", "greater than or equal to 0"},
		{"unsupported tax rate", `{"kind":"QUOTE","items":[{"quantity":"1","tax_rate":15}]}`, "items[0].tax_rate", "0 or 10"},
		{"quantity scale", `{"kind":"QUOTE","items":[{"quantity":"0.00004","tax_rate":0}]}`, "items[0].quantity", "at most 4 decimal places"},
		{"unit price scale", `{"kind":"QUOTE","items":[{"quantity":"1","unit_price":"1.23456","tax_rate":0}]}`, "items[0].unit_price", "at most 4 decimal places"},
		{"unit price range", `{"kind":"QUOTE","items":[{"quantity":"1","unit_price":"100000000000000","tax_rate":0}]}`, "items[0].unit_price", "14 integer digits"},
		{"missing kind", `{"items":[]}`, "kind", "required"},
		{"unknown kind", `{"kind":"RECEIPT"}`, "kind", "one of"},
		{"bad email", `{"kind":"INVOICE","email":"nope"}`, "email", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postDocument(t, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
			assert.Contains(t, resp.Error.Details[0].Message, tt.wantMsg)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
