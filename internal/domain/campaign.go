package domain

import "time"

// PipelineVariant selects which shape of the campaign pipeline runs
type PipelineVariant string

const (
	// VariantAdFromPost promotes an existing page post: campaign → ad set →
	// ad referencing "<pageId>_<postId>" as its object story.
	VariantAdFromPost PipelineVariant = "ad_from_post"
	// VariantFullCampaign generates its own creative: campaign → ad set →
	// image upload + creative → ad.
	VariantFullCampaign PipelineVariant = "full_campaign"
)

// PipelineStep names one stage of the campaign pipeline
type PipelineStep string

const (
	StepCreateCampaign PipelineStep = "create_campaign"
	StepCreateAdSet    PipelineStep = "create_ad_set"
	StepCreateCreative PipelineStep = "create_creative"
	StepCreateAd       PipelineStep = "create_ad"
	StepInstagramPost  PipelineStep = "instagram_post" // best-effort sub-step
)

// Targeting describes the ad set audience. Countries are human-readable
// names translated to ISO-3166 alpha-2 codes before the request is sent.
type Targeting struct {
	Countries []string `json:"countries"`
	AgeMin    int      `json:"age_min,omitempty"`
	AgeMax    int      `json:"age_max,omitempty"`
	Genders   []int    `json:"genders,omitempty"`
}

// PipelineRequest carries everything one pipeline run needs. The two
// historical flows (ad-from-post and full campaign) are a single
// parameterized pipeline distinguished by Variant.
type PipelineRequest struct {
	Variant       PipelineVariant `json:"variant"`
	CampaignName  string          `json:"campaign_name"`
	Objective     string          `json:"objective"`
	Status        string          `json:"status"`
	DailyBudget   int64           `json:"daily_budget"` // minor currency units
	Targeting     Targeting       `json:"targeting"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	PostID        string          `json:"post_id,omitempty"`   // ad_from_post
	ImageURL      string          `json:"image_url,omitempty"` // full_campaign creative, or Instagram cross-post
	LinkURL       string          `json:"link_url,omitempty"`
	Message       string          `json:"message,omitempty"`
	Caption       string          `json:"caption,omitempty"` // Instagram cross-post
	InstagramPost bool            `json:"instagram_post,omitempty"`
}

// StepResult records the outcome of one pipeline step
type StepResult struct {
	Step       PipelineStep `json:"step"`
	Succeeded  bool         `json:"succeeded"`
	ExternalID string       `json:"external_id,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// PipelineResult reports every step attempted and every external id created,
// even when the run fails overall. The pipeline never rolls back: a failed
// run can leave a campaign or ad set behind on the ad platform, and this
// report is what an operator uses to clean up.
type PipelineResult struct {
	Success         bool         `json:"success"`
	Steps           []StepResult `json:"steps"`
	CampaignID      string       `json:"campaign_id,omitempty"`
	AdSetID         string       `json:"ad_set_id,omitempty"`
	CreativeID      string       `json:"creative_id,omitempty"`
	AdID            string       `json:"ad_id,omitempty"`
	InstagramPostID string       `json:"instagram_post_id,omitempty"`
	FailedStep      PipelineStep `json:"failed_step,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// RecordBestEffort appends a step outcome without marking the run failed.
// Used for the Instagram cross-post sub-step, which is advisory only.
func (r *PipelineResult) RecordBestEffort(step PipelineStep, id string, err error) {
	sr := StepResult{Step: step, ExternalID: id, Succeeded: err == nil}
	if err != nil {
		sr.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)
	if step == StepInstagramPost && err == nil {
		r.InstagramPostID = id
	}
}

// Record appends a step outcome and mirrors its id into the named field
func (r *PipelineResult) Record(step PipelineStep, id string, err error) {
	sr := StepResult{Step: step, ExternalID: id, Succeeded: err == nil}
	if err != nil {
		sr.Error = err.Error()
		r.FailedStep = step
		r.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)

	switch step {
	case StepCreateCampaign:
		r.CampaignID = id
	case StepCreateAdSet:
		r.AdSetID = id
	case StepCreateCreative:
		r.CreativeID = id
	case StepCreateAd:
		r.AdID = id
	case StepInstagramPost:
		r.InstagramPostID = id
	}
}
