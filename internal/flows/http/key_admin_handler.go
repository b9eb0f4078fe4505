package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/http/dto"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/usecase"
	"github.com/rfgrow/vozzysmart1-sub008/internal/httputil"
	customValidation "github.com/rfgrow/vozzysmart1-sub008/internal/validation"
)

// KeyAdminHandler handles the operator key management surface.
type KeyAdminHandler struct {
	keyLifecycle usecase.KeyLifecycleUseCase
	logger       *slog.Logger
}

// NewKeyAdminHandler creates a new key admin handler with required dependencies.
func NewKeyAdminHandler(keyLifecycle usecase.KeyLifecycleUseCase, logger *slog.Logger) *KeyAdminHandler {
	return &KeyAdminHandler{
		keyLifecycle: keyLifecycle,
		logger:       logger,
	}
}

// StatusHandler reports the active key pair without its private half.
// GET /v1/admin/keys
func (h *KeyAdminHandler) StatusHandler(c *gin.Context) {
	status, err := h.keyLifecycle.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeyStatusResponse(status))
}

// ReplaceHandler replaces the active key pair: generates a fresh one when the
// body is empty, imports the provided PEM material otherwise.
// POST /v1/admin/keys
//
// The sync outcome rides along in the response instead of failing it; the
// stored key is already replaced by the time the counterpart is notified.
func (h *KeyAdminHandler) ReplaceHandler(c *gin.Context) {
	var req dto.ReplaceKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var (
		pair *domain.KeyPair
		sync usecase.MetaSyncResult
		err  error
	)
	if req.IsImport() {
		pair, sync, err = h.keyLifecycle.ImportKeyPair(
			c.Request.Context(),
			[]byte(req.PrivateKeyPEM),
			[]byte(req.PublicKeyPEM),
		)
	} else {
		pair, sync, err = h.keyLifecycle.GenerateKeyPair(c.Request.Context())
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ReplaceKeyResponse{
		ID:           pair.ID.String(),
		PublicKeyPEM: pair.PublicKeyPEM,
		GeneratedAt:  pair.GeneratedAt,
		MetaSync:     dto.MapMetaSyncResponse(sync),
	})
}

// DeleteHandler removes the active key pair. The rotation cooldown is
// deliberately left intact so deletion cannot reset it.
// DELETE /v1/admin/keys
func (h *KeyAdminHandler) DeleteHandler(c *gin.Context) {
	if err := h.keyLifecycle.DeleteKeyPair(c.Request.Context()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
