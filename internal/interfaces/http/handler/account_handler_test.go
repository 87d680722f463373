package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountapp "github.com/fatoora/backend/internal/application/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
)

type accountFixture struct {
	documentFixture
	accounts *MockAccountService
	userID   uuid.UUID
}

func setupAccountRouter() *accountFixture {
	middleware.SetupValidator()
	f := &accountFixture{accounts: new(MockAccountService), userID: uuid.New()}
	f.accountID = uuid.New()
	h := NewAccountHandler(f.accounts)

	f.router = gin.New()
	f.router.POST("/accounts", withCaller(f.userID, uuid.Nil), h.Register)
	me := f.router.Group("/account", withCaller(f.userID, f.accountID))
	me.GET("", h.Get)
	me.PUT("/profile", h.UpdateProfile)
	me.POST("/fiscal", h.ConfigureFiscal)
	me.POST("/catalog", h.AddCatalogEntry)
	me.POST("/customers", h.AddCustomer)
	return f
}

func TestAccountHandler_Register(t *testing.T) {
	t.Run("first call creates", func(t *testing.T) {
		f := setupAccountRouter()
		f.accounts.On("Register", mock.Anything, f.userID).
			Return(&accountapp.AccountResponse{UserID: f.userID}, true, nil)

		w := f.do(http.MethodPost, "/accounts", nil)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("repeat call returns the account", func(t *testing.T) {
		f := setupAccountRouter()
		f.accounts.On("Register", mock.Anything, f.userID).
			Return(&accountapp.AccountResponse{UserID: f.userID}, false, nil)

		w := f.do(http.MethodPost, "/accounts", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	valid := map[string]any{
		"organization":    "Acme Trading",
		"register_number": "1010101010",
		"tax_number":      "300000000000003",
		"city":            "Riyadh",
		"street":          "King Fahd Rd",
		"phone":           "0500000000",
		"taxable":         true,
	}

	t.Run("applies the profile", func(t *testing.T) {
		f := setupAccountRouter()
		f.accounts.On("UpdateProfile", mock.Anything, f.accountID, mock.AnythingOfType("account.UpdateProfileRequest")).
			Return(&accountapp.AccountResponse{ProfileComplete: true, VAT: "15.0"}, nil)

		w := f.do(http.MethodPut, "/account/profile", valid)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["data"].(map[string]any)["profile_complete"])
	})

	t.Run("tax number must start and end with 3", func(t *testing.T) {
		f := setupAccountRouter()
		f.accounts.On("UpdateProfile", mock.Anything, f.accountID, mock.Anything).
			Return(nil, shared.NewValidationError("INVALID_TAX_NUMBER", "tax_number", "tax number must start and end with 3"))

		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["tax_number"] = "100000000000001"
		w := f.do(http.MethodPut, "/account/profile", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INVALID_TAX_NUMBER", errorCode(t, w))
	})

	t.Run("short tax number fails binding", func(t *testing.T) {
		f := setupAccountRouter()
		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["tax_number"] = "3003"

		w := f.do(http.MethodPut, "/account/profile", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountHandler_ConfigureFiscal(t *testing.T) {
	f := setupAccountRouter()
	f.accounts.On("ConfigureFiscal", mock.Anything, f.accountID).
		Return(&accountapp.AccountResponse{RequiresFiscalConfirmation: true}, nil)

	w := f.do(http.MethodPost, "/account/fiscal", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]any)["requires_fiscal_confirmation"])
}

func TestAccountHandler_AddCatalogEntry(t *testing.T) {
	f := setupAccountRouter()
	f.accounts.On("AddCatalogEntry", mock.Anything, f.accountID, mock.MatchedBy(func(r accountapp.CreateCatalogEntryRequest) bool {
		return r.Name == "Widget" && r.Price.Equal(decimal.NewFromInt(50))
	})).Return(&accountapp.CatalogEntryResponse{Name: "Widget"}, nil)

	w := f.do(http.MethodPost, "/account/catalog", map[string]any{"name": "Widget", "price": "50"})

	assert.Equal(t, http.StatusCreated, w.Code)
	f.accounts.AssertExpectations(t)
}

func TestAccountHandler_AddCustomer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := setupAccountRouter()
		f.accounts.On("AddCustomer", mock.Anything, f.accountID, mock.Anything).
			Return(&accountapp.CustomerResponse{ID: uuid.New()}, nil)

		w := f.do(http.MethodPost, "/account/customers", map[string]any{"organization": "Buyer Co", "postal_zone": "12345"})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("bad postal zone fails binding", func(t *testing.T) {
		f := setupAccountRouter()

		w := f.do(http.MethodPost, "/account/customers", map[string]any{"organization": "Buyer Co", "postal_zone": "12"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.accounts.AssertNotCalled(t, "AddCustomer", mock.Anything, mock.Anything, mock.Anything)
	})
}
