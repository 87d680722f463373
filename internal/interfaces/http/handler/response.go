package handler

import "github.com/fatoora/backend/internal/interfaces/http/dto"

// APIResponse is the typed form of dto.Response used in API documentation
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// CanShareData reports whether a credit note may be shared
type CanShareData struct {
	CanShare bool `json:"can_share"`
}

// IdentifierData carries a previewed document identifier
type IdentifierData struct {
	UID string `json:"uid"`
}

// QRCodeData carries a QR payload and its rendered image
type QRCodeData struct {
	Payload string `json:"payload"`
	Image   string `json:"image"`
}
