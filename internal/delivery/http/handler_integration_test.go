package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealtrack/backend/config"
	"github.com/mealtrack/backend/internal/domain"
	"github.com/mealtrack/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	os.Exit(exitCode)
}

// --- Mock implementations backing the real usecase services ---

type mockCacheRepository struct {
	data map[string]interface{}
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{data: make(map[string]interface{})}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCacheRepository) GetAllByIndex(ctx context.Context, index, value string) ([]interface{}, error) {
	return nil, nil
}

type mockEstimator struct {
	response string
	err      error
}

func (m *mockEstimator) Estimate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type mockMealRepo struct {
	entries map[string]*domain.MealEntry
	nextID  int
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{entries: make(map[string]*domain.MealEntry)}
}

func (r *mockMealRepo) Insert(ctx context.Context, entry *domain.MealEntry) error {
	r.nextID++
	if entry.ID == "" {
		entry.ID = "entry-" + strconv.Itoa(r.nextID)
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *mockMealRepo) GetByID(ctx context.Context, userID, id string) (*domain.MealEntry, error) {
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return nil, domain.ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *mockMealRepo) ListByDate(ctx context.Context, userID, dateLocal string) ([]domain.MealEntry, error) {
	var out []domain.MealEntry
	for _, e := range r.entries {
		if e.UserID == userID && e.DateLocal == dateLocal {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *mockMealRepo) Update(ctx context.Context, entry *domain.MealEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *mockMealRepo) Delete(ctx context.Context, userID, id string) error {
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return domain.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *mockMealRepo) DailyTotals(ctx context.Context, userID, dateLocal string) (*domain.MacroTotals, error) {
	return &domain.MacroTotals{Calories: 500, ProteinG: 40, CarbsG: 30, FatG: 20}, nil
}

func (r *mockMealRepo) WeeklyTotals(ctx context.Context, userID, weekStart string) (*domain.MacroTotals, error) {
	return &domain.MacroTotals{Calories: 4500}, nil
}

func (r *mockMealRepo) SaveEmbedding(ctx context.Context, userID, entryID string, embedding []float64) error {
	return nil
}

func (r *mockMealRepo) ListEmbeddings(ctx context.Context, userID string) ([]domain.EntryEmbedding, error) {
	return nil, nil
}

type mockSettingsRepo struct {
	settings map[string]*domain.UserSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[string]*domain.UserSettings)}
}

func (r *mockSettingsRepo) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s, ok := r.settings[userID]
	if !ok {
		return nil, domain.ErrSettingsNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *mockSettingsRepo) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	copied := *settings
	r.settings[settings.UserID] = &copied
	return nil
}

// validEstimateResponse is a single-item model answer the validator accepts.
const validEstimateResponse = `{
	"items": [{
		"normalized_name": "banana",
		"quantity": 1,
		"unit": "piece",
		"context_note": null,
		"calories_min": 90,
		"calories_max": 110,
		"protein_g_min": 1,
		"protein_g_max": 1.5,
		"carbs_g_min": 22,
		"carbs_g_max": 27,
		"fat_g_min": 0.2,
		"fat_g_max": 0.4,
		"alcohol_g": 0,
		"alcohol_calories": 0,
		"uncertainty": false,
		"base_calories_min": 90,
		"base_calories_max": 110,
		"base_protein_g_min": 1,
		"base_protein_g_max": 1.5,
		"base_carbs_g_min": 22,
		"base_carbs_g_max": 27,
		"base_fat_g_min": 0.2,
		"base_fat_g_max": 0.4,
		"base_alcohol_g": 0,
		"base_alcohol_calories": 0
	}]
}`

type testEnv struct {
	router   *gin.Engine
	meals    *mockMealRepo
	settings *mockSettingsRepo
}

// setupTestEnv wires real services to mocks behind the full router.
func setupTestEnv(estimator *mockEstimator) *testEnv {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	meals := newMockMealRepo()
	settings := newMockSettingsRepo()

	estimationService := usecase.NewEstimationService(
		newMockCacheRepository(), estimator, usecase.EstimationServiceConfig{})
	mealService := usecase.NewMealService(meals, nil)
	settingsService := usecase.NewSettingsService(settings)

	handler := NewHandler(estimationService, mealService, settingsService, nil)
	return &testEnv{
		router:   SetupRouter(cfg, handler),
		meals:    meals,
		settings: settings,
	}
}

// doRequest runs one request with the test user header set.
func (e *testEnv) doRequest(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{})

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "mealtrack-backend" {
			t.Errorf("service = %v, want mealtrack-backend", response["service"])
		}
	})

	t.Run("does not require the user header", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{})

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestUserHeaderRequired(t *testing.T) {
	env := setupTestEnv(&mockEstimator{response: validEstimateResponse})

	req, _ := http.NewRequest("POST", "/api/v1/meals/estimate", strings.NewReader(`{"description":"1 banana"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d without X-User-ID", w.Code, http.StatusUnauthorized)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	t.Run("returns validated items", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{response: validEstimateResponse})

		w := env.doRequest("POST", "/api/v1/meals/estimate", `{"description":"1 banana"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var result domain.EstimateResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(result.Items) != 1 || result.Items[0].Name != "banana" {
			t.Errorf("items = %+v, want one banana", result.Items)
		}
	})

	t.Run("returns 400 for missing description", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{response: validEstimateResponse})

		w := env.doRequest("POST", "/api/v1/meals/estimate", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 422 for an unparsable model response", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{response: "no food here"})

		w := env.doRequest("POST", "/api/v1/meals/estimate", `{"description":"1 banana"}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("returns 502 when the model is unreachable", func(t *testing.T) {
		env := setupTestEnv(&mockEstimator{err: domain.ErrLLMFailure})

		w := env.doRequest("POST", "/api/v1/meals/estimate", `{"description":"1 banana"}`)
		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})
}

// logTestMeal logs one banana entry and returns its ID.
func logTestMeal(t *testing.T, env *testEnv) string {
	t.Helper()

	body := `{
		"date_local": "2026-03-02",
		"meal_group": "breakfast",
		"description": "1 banana",
		"item": {
			"name": "banana",
			"quantity": 1,
			"unit": "piece",
			"current": {
				"calories_min": 96, "calories_max": 119,
				"protein_g_min": 1, "protein_g_max": 1.5,
				"carbs_g_min": 22, "carbs_g_max": 27,
				"fat_g_min": 0.2, "fat_g_max": 0.4
			},
			"base": {
				"calories_min": 96, "calories_max": 119,
				"protein_g_min": 1, "protein_g_max": 1.5,
				"carbs_g_min": 22, "carbs_g_max": 27,
				"fat_g_min": 0.2, "fat_g_max": 0.4
			}
		}
	}`

	w := env.doRequest("POST", "/api/v1/meals", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("log meal: Status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var entry domain.MealEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal entry: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("logged entry has no ID")
	}
	return entry.ID
}

func TestMealLifecycle(t *testing.T) {
	env := setupTestEnv(&mockEstimator{response: validEstimateResponse})
	id := logTestMeal(t, env)

	t.Run("list returns the logged entry", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/meals?date=2026-03-02", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response struct {
			Entries []domain.MealEntry `json:"entries"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Entries) != 1 || response.Entries[0].ID != id {
			t.Errorf("entries = %+v, want the logged entry", response.Entries)
		}
	})

	t.Run("list requires a date", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/meals", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("portion update", func(t *testing.T) {
		w := env.doRequest("PATCH", "/api/v1/meals/"+id+"/portion", `{"level":"heavy"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var entry domain.MealEntry
		if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry: %v", err)
		}
		if entry.Portion != domain.PortionHeavy {
			t.Errorf("Portion = %s, want heavy", entry.Portion)
		}
	})

	t.Run("quantity update rescales", func(t *testing.T) {
		w := env.doRequest("PATCH", "/api/v1/meals/"+id+"/quantity", `{"quantity":2}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var entry domain.MealEntry
		if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry: %v", err)
		}
		if entry.Quantity != 2 {
			t.Errorf("Quantity = %g, want 2", entry.Quantity)
		}
		if entry.Current.CaloriesMin != 192 { // 96*2
			t.Errorf("CaloriesMin = %g, want 192", entry.Current.CaloriesMin)
		}
	})

	t.Run("unknown entry is 404", func(t *testing.T) {
		w := env.doRequest("PATCH", "/api/v1/meals/missing/portion", `{"level":"light"}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		w := env.doRequest("DELETE", "/api/v1/meals/"+id, "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusNoContent)
		}

		w = env.doRequest("DELETE", "/api/v1/meals/"+id, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("second delete Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestQuantityUpdateWithoutBase(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	// Seed a legacy entry directly, bypassing the handler.
	entry := &domain.MealEntry{
		ID: "legacy", UserID: "u1", DateLocal: "2026-03-02",
		MealGroup: domain.GroupLunch, Description: "old entry",
		Quantity: 1, Unit: domain.UnitPortion, Portion: domain.PortionOK,
	}
	env.meals.entries["legacy"] = entry

	w := env.doRequest("PATCH", "/api/v1/meals/legacy/quantity", `{"quantity":2}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d for entry without base macros", w.Code, http.StatusConflict)
	}
}

func TestTotalsEndpoints(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	t.Run("daily totals", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/totals/daily?date=2026-03-02", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var totals domain.MacroTotals
		if err := json.Unmarshal(w.Body.Bytes(), &totals); err != nil {
			t.Fatalf("Failed to unmarshal totals: %v", err)
		}
		if totals.Calories != 500 {
			t.Errorf("Calories = %g, want 500", totals.Calories)
		}
	})

	t.Run("weekly status needs settings", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/totals/weekly?week_start=2026-03-02&date=2026-03-03", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d before settings exist", w.Code, http.StatusNotFound)
		}
	})

	t.Run("weekly status with settings", func(t *testing.T) {
		setBody := `{"daily_calories_target":2000,"protein_pct":30,"carbs_pct":40,"fat_pct":30}`
		if w := env.doRequest("PUT", "/api/v1/settings", setBody); w.Code != http.StatusOK {
			t.Fatalf("put settings: Status = %d; body: %s", w.Code, w.Body.String())
		}

		w := env.doRequest("GET", "/api/v1/totals/weekly?week_start=2026-03-02&date=2026-03-03", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var status usecase.WeeklyStatus
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatalf("Failed to unmarshal status: %v", err)
		}
		if status.DaysElapsed != 2 || status.DaysRemaining != 5 {
			t.Errorf("days = %d/%d, want 2/5", status.DaysElapsed, status.DaysRemaining)
		}
		if status.RebalanceCalories != -100 { // 4500 eaten vs 4000 expected over 2 days
			t.Errorf("RebalanceCalories = %d, want -100", status.RebalanceCalories)
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	t.Run("get before onboarding is 404", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/settings", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		body := `{"daily_calories_target":2000,"protein_pct":30,"carbs_pct":40,"fat_pct":30}`
		w := env.doRequest("PUT", "/api/v1/settings", body)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		w = env.doRequest("GET", "/api/v1/settings", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var settings domain.UserSettings
		if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
			t.Fatalf("Failed to unmarshal settings: %v", err)
		}
		if settings.DailyCaloriesTarget != 2000 {
			t.Errorf("DailyCaloriesTarget = %g, want 2000", settings.DailyCaloriesTarget)
		}
	})

	t.Run("rejects percentages that do not sum to 100", func(t *testing.T) {
		body := `{"daily_calories_target":2000,"protein_pct":50,"carbs_pct":40,"fat_pct":30}`
		w := env.doRequest("PUT", "/api/v1/settings", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("expected macros derive from settings", func(t *testing.T) {
		w := env.doRequest("GET", "/api/v1/settings/expected", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var expected domain.ExpectedMacros
		if err := json.Unmarshal(w.Body.Bytes(), &expected); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if expected.ProteinG != 150 { // 2000*0.30/4
			t.Errorf("ProteinG = %g, want 150", expected.ProteinG)
		}
	})
}

func TestSimilarMealsUnconfigured(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	w := env.doRequest("GET", "/api/v1/meals/similar?q=chicken", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d without an embedding client", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCORSIntegration(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
}

func TestRecoveryMiddlewareIntegration(t *testing.T) {
	env := setupTestEnv(&mockEstimator{})

	env.router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
