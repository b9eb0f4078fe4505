// Package http provides the HTTP handlers for the encrypted flow endpoint
// and its administrative key management surface.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/http/dto"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/usecase"
	"github.com/rfgrow/vozzysmart1-sub008/internal/httputil"
)

// staleKeyHint is sent with 421 responses caused by key mismatch so operators
// reading the counterpart's logs know to re-fetch the public key.
const staleKeyHint = "the public key on record may be stale; re-fetch it and retry"

// ExchangeHandler handles the encrypted data-exchange webhook.
type ExchangeHandler struct {
	exchangeUseCase usecase.ExchangeUseCase
	logger          *slog.Logger
}

// NewExchangeHandler creates a new exchange handler with required dependencies.
func NewExchangeHandler(exchangeUseCase usecase.ExchangeUseCase, logger *slog.Logger) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeUseCase: exchangeUseCase,
		logger:          logger,
	}
}

// ExchangeHandler handles the encrypted webhook round trip.
// POST /v1/flows/data-exchange
//
// Status mapping required by the counterpart's retry semantics:
//   - 400: unparseable body or missing/undecodable envelope fields
//   - 421: decryption failed; signals the counterpart to re-fetch the public key
//   - 200: base64 ciphertext as a text/plain body, never JSON
func (h *ExchangeHandler) ExchangeHandler(c *gin.Context) {
	var req dto.ExchangeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	envelope := domain.FlowEnvelope{
		EncryptedFlowData: req.EncryptedFlowData,
		EncryptedAESKey:   req.EncryptedAESKey,
		InitialVector:     req.InitialVector,
	}

	encrypted, err := h.exchangeUseCase.HandleExchange(c.Request.Context(), envelope)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrKeyMismatch):
			httputil.HandleDecryptionFailedGin(c, staleKeyHint, h.logger)
		case errors.Is(err, domain.ErrMalformedPayload):
			httputil.HandleDecryptionFailedGin(c, "", h.logger)
		case errors.Is(err, domain.ErrMalformedRequest):
			httputil.HandleBadRequestGin(c, err, h.logger)
		default:
			httputil.HandleErrorGin(c, err, h.logger)
		}
		return
	}

	c.Data(http.StatusOK, "text/plain", []byte(encrypted))
}
