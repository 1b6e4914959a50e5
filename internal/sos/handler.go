package sos

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safewalk/sos-dispatcher/internal/auth"
	apierrors "github.com/safewalk/sos-dispatcher/internal/errors"
	"github.com/safewalk/sos-dispatcher/internal/logger"
)

const msgBadRequest = "Bad Request"

var errMissingData = errors.New("request body is missing data field")

// callableRequest is the outer envelope of a callable invocation.
type callableRequest struct {
	Data json.RawMessage `json:"data"`
}

// callableResponse is the outer envelope of a successful invocation.
type callableResponse struct {
	Result *Response `json:"result"`
}

type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SendSOSPush handles POST /sendSosPush in the callable protocol.
func (h *Handler) SendSOSPush(c *gin.Context) {
	ctx := logger.WithOperation(c.Request.Context(), "send_sos_push")
	log := h.logger.WithContext(ctx).WithComponent("sos-handler")

	if c.Request.Method != http.MethodPost {
		apierrors.AbortWithCallableError(c, apierrors.InvalidArgument(msgBadRequest))
		return
	}

	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || mediaType != "application/json" {
		log.Warn("rejected request with unexpected content type",
			slog.String("content_type", c.GetHeader("Content-Type")))
		apierrors.AbortWithCallableError(c, apierrors.InvalidArgument(msgBadRequest))
		return
	}

	req, err := decodeRequest(c.Request)
	if err != nil {
		log.Warn("failed to decode callable request", slog.String("error", err.Error()))
		apierrors.AbortWithCallableError(c, apierrors.InvalidArgument(msgBadRequest))
		return
	}

	// Empty when the request carried no Authorization header.
	userID, _ := auth.GetUserID(c)

	resp, err := h.service.Dispatch(ctx, userID, req)
	if err != nil {
		if callableErr, ok := apierrors.As(err); ok {
			log.Info("sos dispatch rejected",
				slog.String("status", apierrors.Status(callableErr.Code)),
				slog.String("message", callableErr.Message))
			apierrors.AbortWithCallableError(c, callableErr)
			return
		}

		log.Error("sos dispatch failed", slog.String("error", err.Error()))
		apierrors.AbortWithCallableError(c, apierrors.Internal())
		return
	}

	c.JSON(http.StatusOK, callableResponse{Result: resp})
}

// decodeRequest reads the {"data": ...} envelope. A data value that is not
// an object yields an empty Request, which fails validation downstream.
func decodeRequest(r *http.Request) (*Request, error) {
	var envelope callableRequest
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, errMissingData
	}

	var payload any
	decoder := json.NewDecoder(bytes.NewReader(envelope.Data))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}

	req := &Request{}
	if fields, ok := payload.(map[string]any); ok {
		req.SosID = fields["sosId"]
		req.ContactUIDs = fields["contactUids"]
		req.MapLink = fields["mapLink"]
	}
	return req, nil
}
