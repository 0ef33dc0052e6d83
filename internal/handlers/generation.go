package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/genrelay/api/internal/middleware"
	"github.com/genrelay/api/internal/models"
	"github.com/genrelay/api/internal/requestid"
	"github.com/genrelay/api/internal/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("genrelay/handlers")

// Generator produces text for a validated request
type Generator interface {
	Generate(ctx context.Context, kind models.ProfileKind, prompt string, attachments []models.Attachment) (*models.GenerationResult, error)
}

// GenerationHandler serves the two generation endpoints
type GenerationHandler struct {
	generator Generator
	logger    *zap.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generator Generator, logger *zap.Logger) *GenerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{generator: generator, logger: logger}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid or missing 'prompt' in the request body."`
}

// GenerateContent generates text from a prompt
// @Summary Generate text
// @Description Sends the prompt to the text profile and returns the generated text.
// @Tags generation
// @Accept json
// @Produce json
// @Param request body models.GenerationRequest true "Prompt"
// @Success 200 {object} models.GenerationResult
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/generateContent [post]
func (h *GenerationHandler) GenerateContent(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GenerationHandler.GenerateContent")
	defer span.End()

	body, err := validation.DecodeBody(c.Request.Body)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}

	req, err := validation.ValidateTextRequest(body)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}

	result, err := h.generator.Generate(ctx, models.ProfileText, req.Prompt, nil)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateImage generates text from a prompt plus image attachments
// @Summary Generate text from images
// @Description Sends the prompt followed by each image part to the image profile.
// @Description imageParts may be a single object or an array of objects.
// @Tags generation
// @Accept json
// @Produce json
// @Param request body models.GenerationRequest true "Prompt and image parts"
// @Success 200 {object} models.GenerationResult
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/generateImage [post]
func (h *GenerationHandler) GenerateImage(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GenerationHandler.GenerateImage")
	defer span.End()

	body, err := validation.DecodeBody(c.Request.Body)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}

	req, err := validation.ValidateImageRequest(body)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}
	span.SetAttributes(attribute.Int("genrelay.attachments", len(req.Attachments)))

	result, err := h.generator.Generate(ctx, models.ProfileImage, req.Prompt, req.Attachments)
	if err != nil {
		h.respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps err to a status. Only validation messages reach the
// client; everything else is logged and answered with the generic 500.
func (h *GenerationHandler) respondError(ctx context.Context, c *gin.Context, err error) {
	var invalid *validation.InvalidInputError
	if errors.As(err, &invalid) {
		middleware.BadRequest(c, invalid.Message)
		return
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		middleware.PayloadTooLarge(c)
		return
	}

	h.logger.Error("generation failed",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	middleware.InternalError(c)
}
