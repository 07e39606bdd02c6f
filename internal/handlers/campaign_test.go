package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adgate/adgate-api/internal/meta"
	"github.com/adgate/adgate-api/internal/middleware"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/services"
	"github.com/adgate/adgate-api/pkg/dto"
	"github.com/adgate/adgate-api/tests/testutil"
)

type campaignTestEnv struct {
	campaigns *testutil.MockCampaignService
	launcher  *testutil.MockLauncher
	meta      *testutil.MockMetaClient
	key       *models.APIKey
	app       http.Handler
}

// newCampaignEnv wires the campaign routes behind a stub gateway that injects
// an already-authenticated key into the request context.
func newCampaignEnv() *campaignTestEnv {
	env := &campaignTestEnv{
		campaigns: new(testutil.MockCampaignService),
		launcher:  new(testutil.MockLauncher),
		meta:      new(testutil.MockMetaClient),
		key: &models.APIKey{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Tier:   models.TierPro,
		},
	}

	handler := NewCampaignHandler(env.campaigns, env.launcher, env.meta, zerolog.Nop())

	app := drift.New()
	app.SetMode(drift.ReleaseMode)
	app.Use(driftmw.BodyParser())
	app.Use(func(c *drift.Context) {
		c.Set(middleware.APIKeyContextKey, env.key)
		c.Next()
	})
	app.Post("/v1/campaigns", handler.Create)
	app.Get("/v1/campaigns", handler.List)
	app.Get("/v1/campaigns/:id", handler.Get)
	app.Post("/v1/campaigns/:id/launch", handler.Launch)
	app.Post("/v1/campaigns/:id/pause", handler.Pause)
	app.Get("/v1/campaigns/:id/performance", handler.Performance)

	env.app = app
	return env
}

func (env *campaignTestEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func draftCampaign(userID uuid.UUID) *models.Campaign {
	targeting, _ := json.Marshal(models.Targeting{AgeMin: 25, AgeMax: 55})
	creatives, _ := json.Marshal([]models.CreativeVariant{
		{Headline: "Fast quotes", Body: "Get one today", CallToAction: "Get Quote"},
		{Headline: "Licensed plumbers", Body: "Same day service", CallToAction: "Contact Us"},
	})
	return &models.Campaign{
		ID:            uuid.New(),
		UserID:        userID,
		SourceURL:     "https://plumberpro.example",
		BusinessName:  "Plumber Pro",
		TargetingJSON: targeting,
		CreativesJSON: creatives,
		Status:        models.CampaignStatusDraft,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
}

func launchedCampaign(userID uuid.UUID) *models.Campaign {
	campaign := draftCampaign(userID)
	campaign.Status = models.CampaignStatusActive
	for field, id := range map[**string]string{
		&campaign.MetaCampaignID: "cmp_1",
		&campaign.MetaAdSetID:    "as_1",
		&campaign.MetaLeadFormID: "lf_1",
		&campaign.MetaCreativeID: "cr_1",
		&campaign.MetaAdID:       "ad_1",
	} {
		v := id
		*field = &v
	}
	launchedAt := time.Now().Add(-72 * time.Hour)
	campaign.LaunchedAt = &launchedAt
	return campaign
}

func TestCampaignHandler_Create_Success(t *testing.T) {
	env := newCampaignEnv()

	created := draftCampaign(env.key.UserID)
	env.campaigns.On("Create", mock.Anything, env.key.UserID, mock.Anything).Return(created, nil)

	budget := int64(2500)
	rec := env.request(t, http.MethodPost, "/v1/campaigns", dto.CreateCampaignRequest{
		SourceURL:    "https://plumberpro.example",
		BusinessName: "Plumber Pro",
		Creatives: []models.CreativeVariant{
			{Headline: "Fast quotes", Body: "Get one today"},
		},
		DailyBudgetCents: &budget,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.CampaignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, created.ID, response.ID)
	assert.Equal(t, "draft", response.Status)
	assert.Equal(t, "Plumber Pro", response.BusinessName)

	env.campaigns.AssertExpectations(t)
}

func TestCampaignHandler_Create_StoreFailure(t *testing.T) {
	env := newCampaignEnv()

	env.campaigns.On("Create", mock.Anything, env.key.UserID, mock.Anything).
		Return(nil, assert.AnError)

	rec := env.request(t, http.MethodPost, "/v1/campaigns", dto.CreateCampaignRequest{
		SourceURL:    "https://plumberpro.example",
		BusinessName: "Plumber Pro",
		Creatives: []models.CreativeVariant{
			{Headline: "Fast quotes", Body: "Get one today"},
		},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, dto.ErrCodeInternal, response.Error.Code)
	assert.Equal(t, "failed to create campaign", response.Error.Message)
	assert.Equal(t, assert.AnError.Error(), response.Error.Details)
}

func TestCampaignHandler_Create_Validation(t *testing.T) {
	cases := []struct {
		name    string
		req     dto.CreateCampaignRequest
		message string
	}{
		{
			name: "missing source url",
			req: dto.CreateCampaignRequest{
				BusinessName: "Plumber Pro",
				Creatives:    []models.CreativeVariant{{Headline: "H", Body: "B"}},
			},
			message: "source_url is required",
		},
		{
			name: "missing business name",
			req: dto.CreateCampaignRequest{
				SourceURL: "https://plumberpro.example",
				Creatives: []models.CreativeVariant{{Headline: "H", Body: "B"}},
			},
			message: "business_name is required",
		},
		{
			name: "no creatives",
			req: dto.CreateCampaignRequest{
				SourceURL:    "https://plumberpro.example",
				BusinessName: "Plumber Pro",
			},
			message: "at least one creative variant is required",
		},
		{
			name: "creative without body",
			req: dto.CreateCampaignRequest{
				SourceURL:    "https://plumberpro.example",
				BusinessName: "Plumber Pro",
				Creatives:    []models.CreativeVariant{{Headline: "H"}},
			},
			message: "every creative variant needs a headline and body",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newCampaignEnv()
			rec := env.request(t, http.MethodPost, "/v1/campaigns", tc.req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			env.campaigns.AssertNotCalled(t, "Create")
		})
	}
}

func TestCampaignHandler_Create_NegativeBudget(t *testing.T) {
	env := newCampaignEnv()

	budget := int64(-100)
	rec := env.request(t, http.MethodPost, "/v1/campaigns", dto.CreateCampaignRequest{
		SourceURL:        "https://plumberpro.example",
		BusinessName:     "Plumber Pro",
		Creatives:        []models.CreativeVariant{{Headline: "H", Body: "B"}},
		DailyBudgetCents: &budget,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "daily_budget_cents must be positive")
}

func TestCampaignHandler_Get_NotFound(t *testing.T) {
	env := newCampaignEnv()

	id := uuid.New()
	env.campaigns.On("GetByID", mock.Anything, id, env.key.UserID).
		Return(nil, services.ErrCampaignNotFound)

	rec := env.request(t, http.MethodGet, "/v1/campaigns/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeNotFound)
}

func TestCampaignHandler_Get_InvalidID(t *testing.T) {
	env := newCampaignEnv()

	rec := env.request(t, http.MethodGet, "/v1/campaigns/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid campaign id")
}

func TestCampaignHandler_Launch_Success(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	launchedAt := time.Now()
	result := &meta.LaunchResult{
		Chain: models.MetaResourceChain{
			CampaignID: "cmp_1",
			AdSetID:    "as_1",
			LeadFormID: "lf_1",
			CreativeID: "cr_1",
			AdID:       "ad_1",
		},
		DailyBudgetCents: 2500,
		LaunchedAt:       launchedAt,
	}
	env.launcher.On("Launch", mock.Anything, mock.MatchedBy(func(in meta.LaunchInput) bool {
		return in.AdAccountID == "123" &&
			in.PageID == "page_9" &&
			in.DailyBudgetCents == 2500 &&
			in.Variant.Headline == "Licensed plumbers"
	})).Return(result, nil)
	env.campaigns.On("MarkLaunched", mock.Anything, campaign.ID, result.Chain, int64(2500), launchedAt).
		Return(nil)

	budget := int64(2500)
	variant := 1
	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken:  "tok",
		MetaAdAccountID:  "123",
		MetaPageID:       "page_9",
		VariantIndex:     &variant,
		DailyBudgetCents: &budget,
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.LaunchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, campaign.ID, response.ID)
	assert.Equal(t, "active", response.Status)
	assert.Equal(t, "cmp_1", response.MetaCampaignID)
	assert.Equal(t, "ad_1", response.MetaAdID)
	assert.Equal(t, int64(2500), response.DailyBudgetCents)

	env.campaigns.AssertExpectations(t)
	env.launcher.AssertExpectations(t)
}

func TestCampaignHandler_Launch_BudgetFromDraft(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	draftBudget := int64(1800)
	campaign.DailyBudgetCents = &draftBudget
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	result := &meta.LaunchResult{
		Chain:            models.MetaResourceChain{CampaignID: "cmp_1"},
		DailyBudgetCents: 1800,
		LaunchedAt:       time.Now(),
	}
	env.launcher.On("Launch", mock.Anything, mock.MatchedBy(func(in meta.LaunchInput) bool {
		return in.DailyBudgetCents == 1800
	})).Return(result, nil)
	env.campaigns.On("MarkLaunched", mock.Anything, campaign.ID, result.Chain, int64(1800), result.LaunchedAt).
		Return(nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken: "tok",
		MetaAdAccountID: "123",
		MetaPageID:      "page_9",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env.launcher.AssertExpectations(t)
}

func TestCampaignHandler_Launch_MissingCredentials(t *testing.T) {
	cases := []struct {
		name    string
		req     dto.LaunchRequest
		message string
	}{
		{
			name:    "missing token",
			req:     dto.LaunchRequest{MetaAdAccountID: "123", MetaPageID: "page_9"},
			message: "meta_access_token is required",
		},
		{
			name:    "missing ad account",
			req:     dto.LaunchRequest{MetaAccessToken: "tok", MetaPageID: "page_9"},
			message: "meta_ad_account_id is required",
		},
		{
			name:    "missing page",
			req:     dto.LaunchRequest{MetaAccessToken: "tok", MetaAdAccountID: "123"},
			message: "meta_page_id is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newCampaignEnv()
			rec := env.request(t, http.MethodPost, "/v1/campaigns/"+uuid.NewString()+"/launch", tc.req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			env.launcher.AssertNotCalled(t, "Launch")
		})
	}
}

func TestCampaignHandler_Launch_BudgetRequired(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken: "tok",
		MetaAdAccountID: "123",
		MetaPageID:      "page_9",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "daily_budget_cents is required")
	env.launcher.AssertNotCalled(t, "Launch")
}

func TestCampaignHandler_Launch_VariantIndexOutOfRange(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	variant := 7
	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken: "tok",
		MetaAdAccountID: "123",
		MetaPageID:      "page_9",
		VariantIndex:    &variant,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "variant_index out of range")
}

func TestCampaignHandler_Launch_StepError(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	budget := int64(2500)
	campaign.DailyBudgetCents = &budget
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	stepErr := &meta.StepError{
		Step:      meta.StepAdSet,
		Message:   "Budget too low",
		MetaError: json.RawMessage(`{"message":"Budget too low","code":100}`),
	}
	env.launcher.On("Launch", mock.Anything, mock.Anything).Return(nil, stepErr)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken: "tok",
		MetaAdAccountID: "123",
		MetaPageID:      "page_9",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, dto.ErrCodeMetaAPI, response.Error.Code)
	assert.Equal(t, "adset", response.Error.Step)
	assert.JSONEq(t, `{"message":"Budget too low","code":100}`, string(response.Error.MetaError))

	env.campaigns.AssertNotCalled(t, "MarkLaunched")
}

func TestCampaignHandler_Launch_PersistFailure(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	budget := int64(2500)
	campaign.DailyBudgetCents = &budget
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	result := &meta.LaunchResult{
		Chain:            models.MetaResourceChain{CampaignID: "cmp_1"},
		DailyBudgetCents: 2500,
		LaunchedAt:       time.Now(),
	}
	env.launcher.On("Launch", mock.Anything, mock.Anything).Return(result, nil)
	env.campaigns.On("MarkLaunched", mock.Anything, campaign.ID, result.Chain, int64(2500), result.LaunchedAt).
		Return(assert.AnError)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/launch", dto.LaunchRequest{
		MetaAccessToken: "tok",
		MetaAdAccountID: "123",
		MetaPageID:      "page_9",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, dto.ErrCodeInternal, response.Error.Code)
	assert.Equal(t, "campaign launched but could not be recorded", response.Error.Message)
	assert.Equal(t, assert.AnError.Error(), response.Error.Details)
}

func TestCampaignHandler_Pause_Success(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("SetStatus", mock.Anything, "cmp_1", "tok", "PAUSED").
		Return(meta.Result{Ok: true}, nil)
	env.campaigns.On("UpdateStatus", mock.Anything, campaign.ID, models.CampaignStatusPaused).
		Return(nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action:          "pause",
		MetaAccessToken: "tok",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PauseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, campaign.ID, response.CampaignID)
	assert.Equal(t, "paused", response.Status)
	assert.Equal(t, "cmp_1", response.MetaCampaignID)

	env.meta.AssertExpectations(t)
	env.campaigns.AssertExpectations(t)
}

func TestCampaignHandler_Pause_Resume(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	campaign.Status = models.CampaignStatusPaused
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("SetStatus", mock.Anything, "cmp_1", "tok", "ACTIVE").
		Return(meta.Result{Ok: true}, nil)
	env.campaigns.On("UpdateStatus", mock.Anything, campaign.ID, models.CampaignStatusActive).
		Return(nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action:          "resume",
		MetaAccessToken: "tok",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env.meta.AssertExpectations(t)
}

func TestCampaignHandler_Pause_InvalidAction(t *testing.T) {
	env := newCampaignEnv()

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+uuid.NewString()+"/pause", dto.PauseRequest{
		Action: "stop",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "action must be pause or resume")
}

func TestCampaignHandler_Pause_NeverLaunched(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action:          "pause",
		MetaAccessToken: "tok",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "campaign has not been launched")
	env.meta.AssertNotCalled(t, "SetStatus")
}

func TestCampaignHandler_Pause_MissingToken(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action: "pause",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeMissingToken)
}

func TestCampaignHandler_Pause_StoredTokenFallback(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	stored := "stored-tok"
	campaign.MetaAccessToken = &stored
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("SetStatus", mock.Anything, "cmp_1", "stored-tok", "PAUSED").
		Return(meta.Result{Ok: true}, nil)
	env.campaigns.On("UpdateStatus", mock.Anything, campaign.ID, models.CampaignStatusPaused).
		Return(nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action: "pause",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env.meta.AssertExpectations(t)
}

func TestCampaignHandler_Pause_TokenExpired(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("SetStatus", mock.Anything, "cmp_1", "stale", "PAUSED").
		Return(meta.Result{Data: map[string]any{
			"error": map[string]any{"message": "Session expired", "code": float64(190)},
		}}, nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action:          "pause",
		MetaAccessToken: "stale",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeMetaTokenExpired)
	env.campaigns.AssertNotCalled(t, "UpdateStatus")
}

func TestCampaignHandler_Pause_MetaFailurePassthrough(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("SetStatus", mock.Anything, "cmp_1", "tok", "PAUSED").
		Return(meta.Result{Data: map[string]any{
			"error": map[string]any{"message": "Unsupported request", "code": float64(100)},
		}}, nil)

	rec := env.request(t, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/pause", dto.PauseRequest{
		Action:          "pause",
		MetaAccessToken: "tok",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, dto.ErrCodeMetaAPI, response.Error.Code)
	assert.Equal(t, "Unsupported request", response.Error.Message)
	assert.Contains(t, string(response.Error.MetaError), "Unsupported request")
}

func TestCampaignHandler_Performance_SyncsAndClassifies(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("CampaignInsights", mock.Anything, "cmp_1", "tok").
		Return(&meta.Insights{
			Impressions: 2000,
			Clicks:      100,
			SpendCents:  4000,
			LeadsCount:  4,
		}, nil)
	env.campaigns.On("UpdateMetrics", mock.Anything, campaign.ID,
		int64(2000), int64(100), int64(4000), int64(4), mock.Anything).Return(nil)

	rec := env.request(t, http.MethodGet,
		"/v1/campaigns/"+campaign.ID.String()+"/performance?meta_access_token=tok", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.PerformanceStatus)
	assert.Equal(t, int64(2000), response.Metrics.Impressions)
	require.NotNil(t, response.Metrics.CPLCents)
	assert.Equal(t, int64(1000), *response.Metrics.CPLCents)
	assert.InDelta(t, 5.0, response.Metrics.CTRPct, 0.01)
	assert.InDelta(t, 72.0, response.HoursSinceLaunch, 0.1)
	require.NotNil(t, response.LastSyncedAt)

	env.campaigns.AssertExpectations(t)
	env.meta.AssertExpectations(t)
}

func TestCampaignHandler_Performance_NoTokenUsesStoredMetrics(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	campaign.Impressions = 300
	campaign.SpendCents = 1000
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	rec := env.request(t, http.MethodGet,
		"/v1/campaigns/"+campaign.ID.String()+"/performance", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "learning", response.PerformanceStatus)
	assert.Equal(t, int64(300), response.Metrics.Impressions)
	assert.Nil(t, response.LastSyncedAt)

	env.meta.AssertNotCalled(t, "CampaignInsights")
	env.campaigns.AssertNotCalled(t, "UpdateMetrics")
}

func TestCampaignHandler_Performance_TokenExpired(t *testing.T) {
	env := newCampaignEnv()

	campaign := launchedCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)
	env.meta.On("CampaignInsights", mock.Anything, "cmp_1", "stale").
		Return(nil, meta.ErrTokenExpired)

	rec := env.request(t, http.MethodGet,
		"/v1/campaigns/"+campaign.ID.String()+"/performance?meta_access_token=stale", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeMetaTokenExpired)
}

func TestCampaignHandler_Performance_NeverLaunched(t *testing.T) {
	env := newCampaignEnv()

	campaign := draftCampaign(env.key.UserID)
	env.campaigns.On("GetByID", mock.Anything, campaign.ID, env.key.UserID).Return(campaign, nil)

	rec := env.request(t, http.MethodGet,
		"/v1/campaigns/"+campaign.ID.String()+"/performance", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.meta.AssertNotCalled(t, "CampaignInsights")
}

func TestCampaignHandler_List_Empty(t *testing.T) {
	env := newCampaignEnv()

	env.campaigns.On("List", mock.Anything, env.key.UserID).Return([]models.Campaign{}, nil)

	rec := env.request(t, http.MethodGet, "/v1/campaigns", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
