package handlers

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/services"
)

type ReviewHandler struct {
	reviews services.ReviewStore
	captcha services.CaptchaVerifier
	policy  *bluemonday.Policy
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewReviewHandler builds the public review endpoints. A nil captcha disables
// the reCAPTCHA check.
func NewReviewHandler(reviews services.ReviewStore, captcha services.CaptchaVerifier, logger *zap.Logger, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		captcha: captcha,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviews, err := h.reviews.ListReviews(ctx)
	if err != nil {
		reqLogger(h.logger, r).Error("list reviews failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = h.plainText(req.Name)
	req.Text = h.plainText(req.Text)

	errs := req.Validate()
	if h.captcha != nil && strings.TrimSpace(req.RecaptchaToken) == "" {
		errs["recaptchaToken"] = "reCAPTCHA token is required"
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := reqLogger(h.logger, r)

	if h.captcha != nil {
		remoteIP := clientIP(r)
		if err := h.captcha.Verify(ctx, req.RecaptchaToken, remoteIP); err != nil {
			if errors.Is(err, services.ErrCaptchaFailed) {
				log.Info("review captcha rejected", zap.String("ip", remoteIP), zap.Error(err))
				writeError(w, http.StatusForbidden, "reCAPTCHA verification failed")
				return
			}
			log.Error("review captcha error", zap.String("ip", remoteIP), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to verify reCAPTCHA")
			return
		}
	}

	review := models.Review{
		Name: req.Name,
		Text: req.Text,
		Date: models.FormatTimestamp(h.now()),
	}
	if err := h.reviews.CreateReview(ctx, &review); err != nil {
		log.Error("create review failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save review")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// plainText drops any markup and returns the remaining text unescaped and
// trimmed.
func (h *ReviewHandler) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(s)))
}
