package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invoicingapp "github.com/fatoora/backend/internal/application/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
)

// DocumentService is the document engine as seen by HTTP
type DocumentService interface {
	ComputeDocument(ctx context.Context, accountID uuid.UUID, req invoicingapp.CreateDocumentRequest) (*invoicingapp.DocumentResponse, error)
	TransitionInvoiceCode(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.TransitionResponse, error)
	TransitionDocumentType(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.TransitionResponse, error)
	RecordSubmission(ctx context.Context, accountID, docID uuid.UUID, req invoicingapp.SubmissionResultRequest) (*invoicingapp.SubmissionResponse, error)
	CanShareCreditNote(ctx context.Context, accountID, docID uuid.UUID) (bool, error)
	NextIdentifier(ctx context.Context, accountID uuid.UUID, docType string, date time.Time) (string, error)
	Stats(ctx context.Context, accountID uuid.UUID) (*invoicingapp.StatsResponse, error)
	GetByID(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.DocumentResponse, error)
	GetByUID(ctx context.Context, accountID uuid.UUID, uid string) (*invoicingapp.DocumentResponse, error)
	History(ctx context.Context, accountID, docID uuid.UUID) ([]invoicingapp.HistoryResponse, error)
	List(ctx context.Context, accountID uuid.UUID, filter invoicingapp.DocumentListFilter) ([]invoicingapp.DocumentResponse, int64, error)
}

// QRRenderer draws a document's QR payload
type QRRenderer interface {
	RenderPNG(payload string) ([]byte, error)
	RenderDataURI(payload string) (string, error)
}

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	BaseHandler
	service DocumentService
	qr      QRRenderer
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService, qr QRRenderer) *DocumentHandler {
	return &DocumentHandler{service: service, qr: qr}
}

// Compute godoc
//
//	@Summary	Compute, seal and store a new document
//	@Tags		documents
//	@Router		/documents [post]
func (h *DocumentHandler) Compute(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var req invoicingapp.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.service.ComputeDocument(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// GetByID returns one document
func (h *DocumentHandler) GetByID(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), accountID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByUID returns one document by its identifier
func (h *DocumentHandler) GetByUID(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByUID(c.Request.Context(), accountID, c.Param("uid"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List returns a page of documents
func (h *DocumentHandler) List(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var filter invoicingapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	docs, total, err := h.service.List(c.Request.Context(), accountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = shared.DefaultFilter().Page
	}
	if pageSize <= 0 {
		pageSize = shared.DefaultFilter().PageSize
	}
	h.SuccessWithMeta(c, docs, total, page, pageSize)
}

// History returns the lifecycle snapshots of a document
func (h *DocumentHandler) History(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.History(c.Request.Context(), accountID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// TransitionInvoiceCode converts an invoice to a credit note or a credit note to a debit note
func (h *DocumentHandler) TransitionInvoiceCode(c *gin.Context) {
	h.transition(c, h.service.TransitionInvoiceCode)
}

// TransitionDocumentType converts an offer to an invoice
func (h *DocumentHandler) TransitionDocumentType(c *gin.Context) {
	h.transition(c, h.service.TransitionDocumentType)
}

func (h *DocumentHandler) transition(c *gin.Context, op func(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.TransitionResponse, error)) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := op(c.Request.Context(), accountID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordSubmission stores the tax authority's answer for a document
func (h *DocumentHandler) RecordSubmission(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req invoicingapp.SubmissionResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.RecordSubmission(c.Request.Context(), accountID, docID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CanShare reports whether a credit note may be shared with the customer
func (h *DocumentHandler) CanShare(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	can, err := h.service.CanShareCreditNote(c.Request.Context(), accountID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CanShareData{CanShare: can})
}

// nextIdentifierQuery selects the type and fiscal day of a previewed identifier
type nextIdentifierQuery struct {
	DocumentType string    `form:"document_type" binding:"omitempty,oneof=invoice offer"`
	Date         time.Time `form:"date" time_format:"2006-01-02" time_utc:"1"`
}

// NextIdentifier previews the identifier of the next document
func (h *DocumentHandler) NextIdentifier(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var q nextIdentifierQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	uid, err := h.service.NextIdentifier(c.Request.Context(), accountID, q.DocumentType, q.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, IdentifierData{UID: uid})
}

// Stats returns daily and 30-day totals
func (h *DocumentHandler) Stats(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// QRCode renders the document's QR code. The default answer is a PNG;
// ?format=json returns the payload with a data URI.
func (h *DocumentHandler) QRCode(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), accountID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("format") == "json" {
		uri, err := h.qr.RenderDataURI(doc.QRCode)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, QRCodeData{Payload: doc.QRCode, Image: uri})
		return
	}

	png, err := h.qr.RenderPNG(doc.QRCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
