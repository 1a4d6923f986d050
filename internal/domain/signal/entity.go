package signal

import (
	"time"

	"github.com/google/uuid"
)

// SocialBuzzSignal is a detected demand signal (event, social spike, news)
// tied to a city and a future date
type SocialBuzzSignal struct {
	ID         uuid.UUID `db:"id"`
	CityID     uuid.UUID `db:"city_id"`
	SignalDate time.Time `db:"signal_date"`

	Content     string  `db:"content"`
	ImpactScore float64 `db:"impact_score"` // 0-10
	Source      string  `db:"source"`

	CreatedAt time.Time `db:"created_at"`
}

// Known signal sources
const (
	SourceEvent  = "predicthq_event"
	SourceSocial = "social_media"
	SourceNews   = "news"
)

// IsEvent reports whether the signal comes from an event feed
func (s *SocialBuzzSignal) IsEvent() bool {
	return s.Source == SourceEvent
}
