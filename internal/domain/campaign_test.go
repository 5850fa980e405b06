package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineResultRecord(t *testing.T) {
	r := &PipelineResult{}

	r.Record(StepCreateCampaign, "camp-1", nil)
	r.Record(StepCreateAdSet, "", errors.New("budget too low"))

	assert.Equal(t, "camp-1", r.CampaignID)
	assert.Equal(t, StepCreateAdSet, r.FailedStep)
	assert.Equal(t, "budget too low", r.Error)
	assert.Len(t, r.Steps, 2)
	assert.True(t, r.Steps[0].Succeeded)
	assert.False(t, r.Steps[1].Succeeded)
}

func TestPipelineResultRecordMirrorsIDs(t *testing.T) {
	r := &PipelineResult{}
	r.Record(StepCreateCampaign, "c", nil)
	r.Record(StepCreateAdSet, "as", nil)
	r.Record(StepCreateCreative, "cr", nil)
	r.Record(StepCreateAd, "ad", nil)

	assert.Equal(t, "c", r.CampaignID)
	assert.Equal(t, "as", r.AdSetID)
	assert.Equal(t, "cr", r.CreativeID)
	assert.Equal(t, "ad", r.AdID)
	assert.Empty(t, r.FailedStep)
}

func TestPipelineResultRecordBestEffort(t *testing.T) {
	r := &PipelineResult{}
	r.RecordBestEffort(StepInstagramPost, "", errors.New("media upload rejected"))

	// A best-effort step never fails the run.
	assert.Empty(t, r.FailedStep)
	assert.Empty(t, r.Error)
	assert.Empty(t, r.InstagramPostID)
	assert.Len(t, r.Steps, 1)
	assert.False(t, r.Steps[0].Succeeded)

	r2 := &PipelineResult{}
	r2.RecordBestEffort(StepInstagramPost, "ig-9", nil)
	assert.Equal(t, "ig-9", r2.InstagramPostID)
}

func TestLinkedInPostRequestAuthorURN(t *testing.T) {
	org := LinkedInPostRequest{LinkedInPageID: "123", IsOrganizationPage: true}
	assert.Equal(t, "urn:li:organization:123", org.AuthorURN())

	person := LinkedInPostRequest{LinkedInPageID: "abc"}
	assert.Equal(t, "urn:li:person:abc", person.AuthorURN())
}
