package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/adgate/adgate-api/internal/models"
)

// Saga step identifiers, reported verbatim in failure responses.
const (
	StepCampaign = "campaign"
	StepAdSet    = "adset"
	StepLeadForm = "leadform"
	StepCreative = "creative"
	StepAd       = "ad"
	StepActivate = "activate"
)

// StepError is a typed saga failure: the step that failed plus the raw
// upstream error payload, passed through unmodified so callers can tell an
// invalid ad account apart from an invalid page without this package
// interpreting Meta's semantics.
type StepError struct {
	Step      string
	Message   string
	MetaError json.RawMessage
}

func (e *StepError) Error() string {
	return fmt.Sprintf("meta api error at step %q: %s", e.Step, e.Message)
}

// LaunchInput is everything one saga run needs. The caller resolves the
// draft, the creative variant and the budget before invoking Launch.
type LaunchInput struct {
	AccessToken string
	AdAccountID string // with or without the act_ prefix
	PageID      string

	BusinessName     string
	SourceURL        string
	Variant          models.CreativeVariant
	Targeting        models.Targeting
	DailyBudgetCents int64
	RadiusKm         float64
}

// LaunchResult is the fully-materialized resource chain.
type LaunchResult struct {
	Chain            models.MetaResourceChain
	DailyBudgetCents int64
	LaunchedAt       time.Time
}

// ctaTypes maps the human-readable call-to-action labels the copy generator
// produces onto Meta's enum. Unknown labels fall back to LEARN_MORE rather
// than failing the creative step.
var ctaTypes = map[string]string{
	"Learn More":   "LEARN_MORE",
	"Get Quote":    "GET_QUOTE",
	"Sign Up":      "SIGN_UP",
	"Contact Us":   "CONTACT_US",
	"Book Now":     "BOOK_NOW",
	"Apply Now":    "APPLY_NOW",
	"Get Offer":    "GET_OFFER",
	"Subscribe":    "SUBSCRIBE",
	"Call Now":     "CALL_NOW",
	"Download":     "DOWNLOAD",
	"Request Time": "REQUEST_TIME",
}

const defaultCTAType = "LEARN_MORE"

func ctaType(label string) string {
	if t, ok := ctaTypes[label]; ok {
		return t
	}
	return defaultCTAType
}

// Launcher runs the campaign-launch saga: six dependent creations followed by
// leaf-to-root activation, with a compensating campaign delete when any step
// after the first fails. Steps are strictly sequential; each one's input is
// the previous one's output.
type Launcher struct {
	client *Client
	logger zerolog.Logger
}

func NewLauncher(client *Client, logger zerolog.Logger) *Launcher {
	return &Launcher{client: client, logger: logger}
}

// launchState accumulates the identifiers acquired so far.
type launchState struct {
	campaignID string
	adSetID    string
	leadFormID string
	creativeID string
	adID       string
}

// Launch materializes the draft on Meta. On failure the returned error is a
// *StepError; by the time it is returned the compensating delete (if any) has
// already been attempted.
func (l *Launcher) Launch(ctx context.Context, in LaunchInput) (*LaunchResult, error) {
	account := NormalizeAdAccountID(in.AdAccountID)
	var st launchState

	steps := []struct {
		name string
		run  func(ctx context.Context) (Result, error)
		save *string
	}{
		{StepCampaign, func(ctx context.Context) (Result, error) {
			return l.createCampaign(ctx, account, in)
		}, &st.campaignID},
		{StepAdSet, func(ctx context.Context) (Result, error) {
			return l.createAdSet(ctx, account, in, st.campaignID)
		}, &st.adSetID},
		{StepLeadForm, func(ctx context.Context) (Result, error) {
			return l.createLeadForm(ctx, in)
		}, &st.leadFormID},
		{StepCreative, func(ctx context.Context) (Result, error) {
			return l.createCreative(ctx, account, in, st.leadFormID)
		}, &st.creativeID},
		{StepAd, func(ctx context.Context) (Result, error) {
			return l.createAd(ctx, account, in, st.adSetID, st.creativeID)
		}, &st.adID},
	}

	for _, step := range steps {
		res, err := step.run(ctx)
		if err != nil || !res.Ok || res.ID() == "" {
			return nil, l.fail(ctx, in.AccessToken, st.campaignID, step.name, res, err)
		}
		*step.save = res.ID()
	}

	// Activate leaf to root so no parent serves while a child is paused.
	res, err := l.setStatus(ctx, st.adID, in.AccessToken, "ACTIVE")
	if err != nil || !res.Ok {
		return nil, l.fail(ctx, in.AccessToken, st.campaignID, StepActivate, res, err)
	}
	for _, id := range []string{st.adSetID, st.campaignID} {
		if res, err := l.setStatus(ctx, id, in.AccessToken, "ACTIVE"); err != nil || !res.Ok {
			// The chain is already serving from the ad's perspective;
			// surface nothing but leave a trace for operators.
			l.logger.Error().
				Str("resource_id", id).
				AnErr("transport_err", err).
				Str("meta_error", res.ErrorMessage()).
				Msg("activation of parent resource failed")
		}
	}

	return &LaunchResult{
		Chain: models.MetaResourceChain{
			CampaignID: st.campaignID,
			AdSetID:    st.adSetID,
			LeadFormID: st.leadFormID,
			CreativeID: st.creativeID,
			AdID:       st.adID,
		},
		DailyBudgetCents: in.DailyBudgetCents,
		LaunchedAt:       time.Now().UTC(),
	}, nil
}

// fail builds the StepError and, when a campaign already exists, issues the
// compensating delete. Meta cascades a campaign delete to its ad sets, ads
// and creatives, which is the only rollback primitive available. The delete's
// own outcome is logged but never surfaced to the caller.
func (l *Launcher) fail(ctx context.Context, token, campaignID, step string, res Result, err error) *StepError {
	stepErr := &StepError{Step: step}
	if err != nil {
		stepErr.Message = err.Error()
		stepErr.MetaError, _ = json.Marshal(map[string]string{"message": err.Error()})
	} else {
		stepErr.Message = res.ErrorMessage()
		stepErr.MetaError = res.ErrorJSON()
	}

	if campaignID != "" && step != StepCampaign {
		if delRes, delErr := l.client.Delete(ctx, campaignID, token); delErr != nil || !delRes.Ok {
			l.logger.Error().
				Str("campaign_id", campaignID).
				Str("step", step).
				AnErr("transport_err", delErr).
				Str("meta_error", delRes.ErrorMessage()).
				Msg("compensating campaign delete failed; external resources may be orphaned")
		} else {
			l.logger.Info().
				Str("campaign_id", campaignID).
				Str("step", step).
				Msg("rolled back campaign after failed launch step")
		}
	}

	return stepErr
}

func (l *Launcher) createCampaign(ctx context.Context, account string, in LaunchInput) (Result, error) {
	params := url.Values{}
	params.Set("name", fmt.Sprintf("%s Leads %s", in.BusinessName, time.Now().Format("2006-01-02")))
	params.Set("objective", "OUTCOME_LEADS")
	params.Set("status", "PAUSED")
	params.Set("special_ad_categories", "[]")

	return l.client.Post(ctx, account+"/campaigns", in.AccessToken, params)
}

func (l *Launcher) createAdSet(ctx context.Context, account string, in LaunchInput, campaignID string) (Result, error) {
	ageMin, ageMax := in.Targeting.AgeMin, in.Targeting.AgeMax
	if ageMin == 0 {
		ageMin = 18
	}
	if ageMax == 0 {
		ageMax = 65
	}

	targeting := map[string]any{
		"age_min":             ageMin,
		"age_max":             ageMax,
		"publisher_platforms": []string{"facebook", "instagram"},
	}
	if len(in.Targeting.Locations) > 0 {
		locations := make([]map[string]any, 0, len(in.Targeting.Locations))
		for _, loc := range in.Targeting.Locations {
			radius := loc.RadiusKm
			if radius == 0 {
				radius = in.RadiusKm
			}
			locations = append(locations, map[string]any{
				"latitude":      loc.Latitude,
				"longitude":     loc.Longitude,
				"radius":        radius,
				"distance_unit": "kilometer",
			})
		}
		targeting["geo_locations"] = map[string]any{"custom_locations": locations}
	} else {
		targeting["geo_locations"] = map[string]any{"countries": []string{"US"}}
	}
	targetingJSON, _ := json.Marshal(targeting)

	promotedObject, _ := json.Marshal(map[string]string{"page_id": in.PageID})

	params := url.Values{}
	params.Set("name", in.BusinessName+" Ad Set")
	params.Set("campaign_id", campaignID)
	params.Set("daily_budget", strconv.FormatInt(in.DailyBudgetCents, 10))
	params.Set("billing_event", "IMPRESSIONS")
	params.Set("optimization_goal", "LEAD_GENERATION")
	params.Set("destination_type", "ON_AD")
	params.Set("promoted_object", string(promotedObject))
	params.Set("targeting", string(targetingJSON))
	params.Set("status", "PAUSED")

	return l.client.Post(ctx, account+"/adsets", in.AccessToken, params)
}

func (l *Launcher) createLeadForm(ctx context.Context, in LaunchInput) (Result, error) {
	questions, _ := json.Marshal([]map[string]any{
		{"type": "FULL_NAME"},
		{"type": "PHONE"},
		{"type": "EMAIL"},
		{"type": "CUSTOM", "label": "What area are you located in?"},
	})
	privacyPolicy, _ := json.Marshal(map[string]string{"url": in.SourceURL + "/privacy"})
	thankYou, _ := json.Marshal(map[string]string{
		"title":       "Thank you!",
		"body":        fmt.Sprintf("Thanks for your interest in %s. We'll be in touch shortly.", in.BusinessName),
		"button_text": "Visit Website",
		"button_type": "VIEW_WEBSITE",
		"website_url": in.SourceURL,
	})

	params := url.Values{}
	params.Set("name", in.BusinessName+" Lead Form")
	params.Set("questions", string(questions))
	params.Set("privacy_policy", string(privacyPolicy))
	params.Set("thank_you_page", string(thankYou))

	return l.client.Post(ctx, in.PageID+"/leadgen_forms", in.AccessToken, params)
}

func (l *Launcher) createCreative(ctx context.Context, account string, in LaunchInput, leadFormID string) (Result, error) {
	linkData := map[string]any{
		"message": in.Variant.Body,
		"name":    in.Variant.Headline,
		"link":    "https://fb.me/",
		"call_to_action": map[string]any{
			"type":  ctaType(in.Variant.CallToAction),
			"value": map[string]string{"lead_gen_form_id": leadFormID},
		},
	}
	if in.Variant.ImageURL != "" {
		linkData["picture"] = in.Variant.ImageURL
	}
	storySpec, _ := json.Marshal(map[string]any{
		"page_id":   in.PageID,
		"link_data": linkData,
	})

	params := url.Values{}
	params.Set("name", in.BusinessName+" Creative")
	params.Set("object_story_spec", string(storySpec))

	return l.client.Post(ctx, account+"/adcreatives", in.AccessToken, params)
}

func (l *Launcher) createAd(ctx context.Context, account string, in LaunchInput, adSetID, creativeID string) (Result, error) {
	creative, _ := json.Marshal(map[string]string{"creative_id": creativeID})

	params := url.Values{}
	params.Set("name", in.BusinessName+" Ad")
	params.Set("adset_id", adSetID)
	params.Set("creative", string(creative))
	params.Set("status", "PAUSED")

	return l.client.Post(ctx, account+"/ads", in.AccessToken, params)
}

func (l *Launcher) setStatus(ctx context.Context, resourceID, token, status string) (Result, error) {
	return l.client.SetStatus(ctx, resourceID, token, status)
}
