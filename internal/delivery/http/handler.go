package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealtrack/backend/internal/domain"
	"github.com/mealtrack/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	estimation *usecase.EstimationService
	meals      *usecase.MealService
	settings   *usecase.SettingsService
	similar    *usecase.SimilarMealService
}

// NewHandler creates a new HTTP handler. similar may be nil when no embedding
// client is configured; the similar-meals endpoint then returns 503.
func NewHandler(
	estimation *usecase.EstimationService,
	meals *usecase.MealService,
	settings *usecase.SettingsService,
	similar *usecase.SimilarMealService,
) *Handler {
	return &Handler{
		estimation: estimation,
		meals:      meals,
		settings:   settings,
		similar:    similar,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mealtrack-backend",
		"version": "1.0.0",
	})
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidSettings):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnparsableResponse),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrEnergyMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingBaseMacros):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrSettingsNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLLMFailure):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type estimateRequest struct {
	Description string `json:"description" binding:"required"`
}

// EstimateMeal runs the estimation pipeline on a free-text description.
func (h *Handler) EstimateMeal(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	result, err := h.estimation.EstimateMeal(c.Request.Context(), req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type logMealRequest struct {
	DateLocal   string                   `json:"date_local" binding:"required"`
	MealGroup   domain.MealGroup         `json:"meal_group" binding:"required"`
	Description string                   `json:"description" binding:"required"`
	Item        *domain.FoodItemEstimate `json:"item" binding:"required"`
	Portion     domain.PortionLevel      `json:"portion_level"`
}

// LogMeal persists one accepted estimated item as a tracked entry.
func (h *Handler) LogMeal(c *gin.Context) {
	var req logMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portion := req.Portion
	if portion == "" {
		portion = domain.PortionOK
	}

	item := req.Item
	base := item.Base
	entry := &domain.MealEntry{
		UserID:      userID(c),
		DateLocal:   req.DateLocal,
		MealGroup:   req.MealGroup,
		Description: req.Description,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		ContextNote: item.ContextNote,
		Current:     item.Current,
		AlcoholG:    item.AlcoholG,
		AlcoholCals: item.AlcoholCalories,
		Base:        &base,
		BaseAlcohol: item.BaseAlcoholG,
		BaseAlcCals: item.BaseAlcoholCalories,
		Uncertainty: item.Uncertainty,
		Portion:     portion,
	}

	if err := h.meals.Log(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListMeals returns the day's entries for the calling user.
func (h *Handler) ListMeals(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	entries, err := h.meals.ListDay(c.Request.Context(), userID(c), date)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.MealEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type portionRequest struct {
	Level domain.PortionLevel `json:"level" binding:"required"`
}

// UpdatePortion switches an entry's portion level.
func (h *Handler) UpdatePortion(c *gin.Context) {
	var req portionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "level is required"})
		return
	}

	entry, err := h.meals.UpdatePortionLevel(c.Request.Context(), userID(c), c.Param("id"), req.Level)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type quantityRequest struct {
	Quantity float64          `json:"quantity" binding:"required"`
	Unit     *domain.MealUnit `json:"unit"`
}

// UpdateQuantity rescales an entry's macros to a new quantity.
func (h *Handler) UpdateQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	entry, err := h.meals.UpdateQuantity(c.Request.Context(), userID(c), c.Param("id"), req.Quantity, req.Unit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ReEstimateMeal re-runs estimation for an edited description and applies the
// first item to the entry.
func (h *Handler) ReEstimateMeal(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	result, err := h.estimation.EstimateMeal(c.Request.Context(), req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(result.Items) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no food items detected"})
		return
	}

	entry, err := h.meals.ReplaceEstimate(c.Request.Context(), userID(c), c.Param("id"), req.Description, &result.Items[0])
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteMeal removes an entry.
func (h *Handler) DeleteMeal(c *gin.Context) {
	if err := h.meals.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailyTotals returns the resolved macro sums for one date.
func (h *Handler) DailyTotals(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	totals, err := h.meals.DailyTotals(c.Request.Context(), userID(c), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// WeeklyStatus returns the week's totals, targets, and rebalance adjustment.
func (h *Handler) WeeklyStatus(c *gin.Context) {
	weekStart := c.Query("week_start")
	if weekStart == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_start query parameter is required"})
		return
	}
	today := c.Query("date")
	if today == "" {
		today = time.Now().UTC().Format("2006-01-02")
	}

	settings, err := h.settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	status, err := h.meals.WeeklyStatus(c.Request.Context(), userID(c), weekStart, today, settings)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetSettings returns the user's settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	DailyCaloriesTarget float64 `json:"daily_calories_target" binding:"required"`
	ProteinPct          float64 `json:"protein_pct" binding:"required"`
	CarbsPct            float64 `json:"carbs_pct" binding:"required"`
	FatPct              float64 `json:"fat_pct" binding:"required"`
}

// PutSettings validates and stores the user's settings.
func (h *Handler) PutSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := &domain.UserSettings{
		UserID:              userID(c),
		DailyCaloriesTarget: req.DailyCaloriesTarget,
		ProteinPct:          req.ProteinPct,
		CarbsPct:            req.CarbsPct,
		FatPct:              req.FatPct,
	}
	if err := h.settings.Upsert(c.Request.Context(), settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ExpectedMacros returns the per-day gram targets derived from settings.
func (h *Handler) ExpectedMacros(c *gin.Context) {
	expected, err := h.settings.Expected(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, expected)
}

// SimilarMeals ranks previously logged meals against a query.
func (h *Handler) SimilarMeals(c *gin.Context) {
	if h.similar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "similar-meal search is not configured"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	matches, err := h.similar.Search(c.Request.Context(), userID(c), query, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if matches == nil {
		matches = []domain.SimilarMeal{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
