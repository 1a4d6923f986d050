package analysis

import (
	"time"

	"github.com/shopspring/decimal"

	"prisma/internal/domain/city"
	"prisma/internal/domain/report"
	"prisma/internal/gather"
)

func baselineValue(avg decimal.Decimal, missing bool) float64 {
	if missing {
		return 0
	}
	v, _ := avg.Float64()
	return v
}

// buildStructuredData folds the gathered bundle and baselines into the
// machine-readable report companion.
func buildStructuredData(c *city.City, start, end time.Time, bundle *gather.Bundle, competitorBaseline, flightBaseline float64) *report.StructuredData {
	avgCompetitor, _ := bundle.AverageHotelPrice().Float64()
	avgFlight, _ := bundle.AverageFlightPrice().Float64()

	data := &report.StructuredData{
		City: c.DisplayName(),
		Period: report.Period{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		},
		AvgCompetitorRealtime: avgCompetitor,
		AvgCompetitorBaseline: competitorBaseline,
		AvgFlightRealtime:     avgFlight,
		AvgFlightBaseline:     flightBaseline,
		TopEvents:             []report.Event{},
		SocialBuzzSignals:     []report.SocialBuzzSignal{},
		TopNews:               []report.NewsArticle{},
	}

	for _, sig := range bundle.Signals {
		impact := sig.ImpactScore
		data.SocialBuzzSignals = append(data.SocialBuzzSignals, report.SocialBuzzSignal{
			Content:     sig.Content,
			ImpactScore: &impact,
			Source:      string(sig.Source),
		})
		if sig.IsEvent() {
			data.TopEvents = append(data.TopEvents, report.Event{Title: sig.Content})
		}
	}

	for i, article := range bundle.News {
		if i >= 3 {
			break
		}
		data.TopNews = append(data.TopNews, report.NewsArticle{
			Title:  article.Title,
			Source: article.Source,
		})
	}

	return data
}
