package domain

import "time"

// PostMetrics is a cached snapshot of one post's engagement numbers.
// Maps to users/{userId}/analytics/{platform}_{postId}.
type PostMetrics struct {
	PostID      string    `firestore:"postId" json:"post_id"`
	Platform    string    `firestore:"platform" json:"platform"`
	Likes       int       `firestore:"likes" json:"likes"`
	Comments    int       `firestore:"comments" json:"comments"`
	Shares      int       `firestore:"shares" json:"shares"`
	Clicks      int       `firestore:"clicks" json:"clicks"`
	Impressions int       `firestore:"impressions" json:"impressions"`
	Engagement  int       `firestore:"engagement" json:"engagement"`
	CTR         float64   `firestore:"ctr" json:"ctr"`
	FetchedAt   time.Time `firestore:"fetchedAt" json:"fetched_at"`
}

// Compute fills the derived fields from the raw counts.
// Engagement is the plain sum; CTR is clicks per impression as a
// percentage, zero when there are no impressions.
func (m *PostMetrics) Compute() {
	m.Engagement = m.Likes + m.Comments + m.Shares + m.Clicks
	if m.Impressions > 0 {
		m.CTR = float64(m.Clicks) / float64(m.Impressions) * 100
	} else {
		m.CTR = 0
	}
}

// AnalyticsDocID builds the Firestore document id for a snapshot
func AnalyticsDocID(platform, postID string) string {
	return platform + "_" + postID
}
