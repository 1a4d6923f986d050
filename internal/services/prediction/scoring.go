package prediction

import (
	"time"

	"prisma/internal/domain/prediction"
)

const baseScore = 50

// ScoreDemand computes the deterministic demand score for a city and date.
// Same inputs always produce the same score, which keeps the daily batch
// reproducible and the upserts stable.
func ScoreDemand(slug string, date time.Time) (int, []prediction.Factor) {
	score := baseScore
	var factors []prediction.Factor

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		score += 15
		factors = append(factors, prediction.Factor{
			Type:        "sazonal",
			Description: "Fim de semana - aumento típico de demanda turística",
			Impact:      6,
		})
	}

	month := date.Month()
	winter := month >= time.June && month <= time.September
	summer := month == time.December || month == time.January || month == time.February

	switch slug {
	case "foz-iguacu":
		if winter {
			score += 10
			factors = append(factors, prediction.Factor{
				Type:        "clima",
				Description: "Alta temporada - inverno com clima favorável para visitação das Cataratas",
				Impact:      7,
			})
		}
	case "gramado":
		if winter {
			score += 25
			factors = append(factors, prediction.Factor{
				Type:        "evento",
				Description: "Temporada de inverno - Natal Luz e festivais de chocolate",
				Impact:      9,
			})
		}
	case "rio-janeiro":
		if summer {
			score += 30
			factors = append(factors, prediction.Factor{
				Type:        "evento",
				Description: "Alta temporada de verão - Réveillon e Carnaval",
				Impact:      10,
			})
		}
	}

	return score, factors
}

var fallbackBasePrices = map[string]float64{
	"foz-iguacu":  280,
	"gramado":     350,
	"rio-janeiro": 420,
}

const defaultBasePrice = 300

// BasePriceFor resolves the reference nightly rate for a city.
func BasePriceFor(slug string, configured float64) float64 {
	if configured > 0 {
		return configured
	}
	if price, ok := fallbackBasePrices[slug]; ok {
		return price
	}
	return defaultBasePrice
}
