package router

import (
	"github.com/gin-gonic/gin"

	"github.com/fatoora/backend/internal/interfaces/http/handler"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP adapters mounted by Mount
type Handlers struct {
	System        *handler.SystemHandler
	Accounts      *handler.AccountHandler
	Documents     *handler.DocumentHandler
	Subscriptions *handler.SubscriptionHandler
}

// Guards are the per-route access checks
type Guards struct {
	Accounts    middleware.AccountResolver
	Entitlement middleware.EntitlementChecker
	// CallbackLimiter throttles the public payment callback. Nil disables it.
	CallbackLimiter *middleware.RateLimiter
}

// Mount registers probes, system info and every versioned API route on the
// engine. Global middleware is the caller's concern.
func Mount(engine *gin.Engine, h Handlers, g Guards) {
	engine.GET("/health", h.System.Live)
	engine.GET("/ready", h.System.Ready)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(systemRoutes(h)).
		Register(paymentCallbackRoutes(h, g)).
		Register(registrationRoutes(h)).
		Register(accountRoutes(h, g)).
		Register(documentRoutes(h, g)).
		Register(subscriptionRoutes(h)).
		Register(adminRoutes(h))
	r.Setup()
}

func systemRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)
}

// paymentCallbackRoutes is the only unauthenticated write; the gateway calls it
func paymentCallbackRoutes(h Handlers, g Guards) *DomainGroup {
	group := NewDomainGroup("payment-callback", "/payments")
	if g.CallbackLimiter != nil {
		group.Use(middleware.RateLimit(g.CallbackLimiter))
	}
	return group.POST("/callback", h.Subscriptions.PaymentCallback)
}

func registrationRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("registration", "/accounts").
		Use(middleware.UserContext(), middleware.TracingAttributeInjector()).
		POST("", h.Accounts.Register)
}

func accountRoutes(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("account", "/account").
		Use(callerChain(g)...).
		GET("", h.Accounts.Get).
		PUT("/profile", h.Accounts.UpdateProfile).
		POST("/fiscal", h.Accounts.ConfigureFiscal).
		POST("/catalog", h.Accounts.AddCatalogEntry).
		POST("/customers", h.Accounts.AddCustomer)
}

// documentRoutes gates every document write on entitlement. Reads stay open
// so an expired user can still see and share what they issued.
func documentRoutes(h Handlers, g Guards) *DomainGroup {
	entitled := middleware.RequireEntitlement(g.Entitlement)
	d := h.Documents

	return NewDomainGroup("documents", "/documents").
		Use(callerChain(g)...).
		POST("", entitled, d.Compute).
		GET("", d.List).
		GET("/stats", d.Stats).
		GET("/next-identifier", d.NextIdentifier).
		GET("/by-uid/:uid", d.GetByUID).
		GET("/:id", d.GetByID).
		GET("/:id/history", d.History).
		GET("/:id/qr", d.QRCode).
		GET("/:id/can-share", d.CanShare).
		POST("/:id/invoice-code-transition", entitled, d.TransitionInvoiceCode).
		POST("/:id/document-type-transition", entitled, d.TransitionDocumentType).
		POST("/:id/submission", d.RecordSubmission)
}

// subscriptionRoutes works by user, so an account is not required to pay
func subscriptionRoutes(h Handlers) *DomainGroup {
	s := h.Subscriptions
	return NewDomainGroup("subscription", "/subscription").
		Use(middleware.UserContext(), middleware.TracingAttributeInjector()).
		GET("/entitlement", s.Entitlement).
		GET("/can-pay", s.CanPay).
		GET("/records", s.ListRecords).
		POST("/payments", s.CreatePayment).
		GET("/packages", s.ListPackages)
}

// adminRoutes are operator actions. The gateway in front of this service
// restricts who can reach /admin.
func adminRoutes(h Handlers) *DomainGroup {
	s := h.Subscriptions
	return NewDomainGroup("admin", "/admin").
		Use(middleware.UserContext()).
		POST("/packages", s.CreatePackage).
		POST("/payments/:id/apply", s.ApplyPayment)
}

func callerChain(g Guards) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.UserContext(),
		middleware.AccountContext(g.Accounts),
		middleware.TracingAttributeInjector(),
	}
}
