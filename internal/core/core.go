// Package core defines the domain entities shared across every pipeline
// stage and the read API.
package core

import "time"

// KeywordType enumerates the named-entity categories a keyword can carry.
type KeywordType string

const (
	KeywordPerson      KeywordType = "PERSON"
	KeywordPlace       KeywordType = "PLACE"
	KeywordEvent       KeywordType = "EVENT"
	KeywordInstitution KeywordType = "INSTITUTION"
	KeywordConcept     KeywordType = "CONCEPT"
	KeywordOther       KeywordType = "OTHER"
)

// DatePrecision tags how much of a TimelineEvent's date string was known.
type DatePrecision string

const (
	PrecisionDay   DatePrecision = "D"
	PrecisionMonth DatePrecision = "M"
	PrecisionYear  DatePrecision = "Y"
)

// DigestState is one node of the digest controller's state machine.
type DigestState string

const (
	StateCreated           DigestState = "CREATED"
	StateArticlesCollected DigestState = "ARTICLES_COLLECTED"
	StateArticlesEmbedded  DigestState = "ARTICLES_EMBEDDED"
	StateStoriesGenerated  DigestState = "STORIES_GENERATED"
	StateStoriesEmbedded   DigestState = "STORIES_EMBEDDED"
	StateImagesCollected   DigestState = "IMAGES_COLLECTED"
	StateRundownsGenerated DigestState = "RUNDOWNS_GENERATED"
	StateReady             DigestState = "READY"
)

// stateOrder gives each state its position for monotonicity checks.
var stateOrder = map[DigestState]int{
	StateCreated:           0,
	StateArticlesCollected: 1,
	StateArticlesEmbedded:  2,
	StateStoriesGenerated:  3,
	StateStoriesEmbedded:   4,
	StateImagesCollected:   5,
	StateRundownsGenerated: 6,
	StateReady:             7,
}

// Before reports whether s precedes other in the state sequence.
func (s DigestState) Before(other DigestState) bool {
	return stateOrder[s] < stateOrder[other]
}

// Provider is a statically-seeded news source.
type Provider struct {
	ID       int
	Name     string
	Homepage string
	Favicon  string
	Country  string
	Timezone string
}

// Article is an immutable fetched news item.
type Article struct {
	ID                 int
	ProviderID         int
	Timestamp          time.Time // UTC
	Date               time.Time // calendar date at provider-local time
	Title              string
	Subtitle           string
	URL                string // canonical: no query string, no fragment
	Body               string // whitespace-normalised
	CoverImageURL      string
	CandidateImageURLs []string
	DateFetched        time.Time
	DateAdded          time.Time
}

// ArticleEmbedding is the 1:1 dense vector attached to an Article.
type ArticleEmbedding struct {
	ArticleID int
	Vector    []float64
}

// Story is an admitted cluster of articles about one event.
type Story struct {
	ID              int
	Timestamp       time.Time
	DigestID        int
	Label           string // "YYYYMMDD-<digest_id>"
	Headline        string
	Summary         string
	CoverageSummary string
}

// StoryArticle is the many-to-many join between Story and Article.
type StoryArticle struct {
	StoryID   int
	ArticleID int
}

// Keyword is a lemmatised named entity, unique on (Text, Type).
type Keyword struct {
	ID   int
	Text string
	Type KeywordType
}

// StoryKeyword is the many-to-many join between Story and Keyword.
type StoryKeyword struct {
	StoryID   int
	KeywordID int
}

// TimelineKeyword is the many-to-many join between Timeline and Keyword.
type TimelineKeyword struct {
	TimelineID int
	KeywordID  int
}

// StoryEmbedding is the 1:1 dense vector attached to a Story.
type StoryEmbedding struct {
	StoryID int
	Vector  []float64
}

// Digest is one periodic batch of stories and its lifecycle state.
type Digest struct {
	ID        int
	CreatedAt time.Time
	UpdatedAt time.Time
	State     DigestState
}

// DigestRundown is a category-scoped prose overview of a digest.
type DigestRundown struct {
	DigestID int
	Type     string
	Text     string
}

// Timeline tracks a long-running event across multiple digests' stories.
type Timeline struct {
	ID       int
	DigestID int
	Subject  string // 2-5 words
	Headline string
	Summary  string // <=250 words
}

// TimelineEvent is one dated point in a Timeline, referencing the Story
// that reported it.
type TimelineEvent struct {
	TimelineID  int
	StoryID     int
	Description string // <=10 words
	Date        time.Time
	Precision   DatePrecision
}

// TimelineStory is the many-to-many join between Timeline and Story.
type TimelineStory struct {
	TimelineID int
	StoryID    int
}
