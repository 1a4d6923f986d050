package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"prisma/internal/adapters/ai"
	"prisma/internal/domain/report"
	"prisma/pkg/errors"
)

const systemPrompt = "Você é o Prisma, um Analista de Mercado Hoteleiro de elite. Sua missão é conectar sinais de mercado óbvios (preços) com sinais de demanda latente (buzz social, eventos, notícias) para gerar uma previsão de demanda e recomendações acionáveis. Seja direto, confiante e foque em dados."

// Synthesizer turns gathered market data into the final Markdown report.
type Synthesizer struct {
	provider    ai.ChatProvider
	model       string
	temperature float64
	maxTokens   int
}

func NewSynthesizer(provider ai.ChatProvider, model string) *Synthesizer {
	return &Synthesizer{
		provider:    provider,
		model:       model,
		temperature: 0.4,
		maxTokens:   2048,
	}
}

// SystemPrompt exposes the analyst persona for callers seeding their own
// conversations (the tool loop and the chat endpoint reuse it).
func SystemPrompt() string { return systemPrompt }

// BuildDossier renders the structured market data as the intelligence dossier
// the model analyzes.
func BuildDossier(data *report.StructuredData, start, end time.Time) string {
	var sb strings.Builder

	sb.WriteString("**Dossiê de Inteligência de Mercado**\n")
	sb.WriteString(fmt.Sprintf("- **Destino:** %s\n", data.City))
	sb.WriteString(fmt.Sprintf("- **Período de Análise:** %s a %s\n\n", start.Format("2006-01-02"), end.Format("2006-01-02")))

	sb.WriteString("**1. Análise de Preços (Sinais de Mercado):**\n")
	sb.WriteString(fmt.Sprintf("- **Concorrência (Hotéis):** O preço médio hoje é **R$ %.2f**. A linha de base para este período, medida no início do mês, era de **R$ %.2f**.\n",
		data.AvgCompetitorRealtime, data.AvgCompetitorBaseline))
	sb.WriteString(fmt.Sprintf("- **Demanda Aérea (Voos de SP):** O preço médio hoje é **R$ %.2f**.\n\n", data.AvgFlightRealtime))

	sb.WriteString("**2. Análise de Demanda (Sinais Latentes):**\n")
	sb.WriteString("- **Eventos e Buzz Social Detectados:**\n")
	sb.WriteString(renderSignals(data.SocialBuzzSignals))
	sb.WriteString("\n- **Principais Notícias de Turismo:**\n")
	sb.WriteString(renderNews(data.TopNews))

	sb.WriteString("\n**Sua Tarefa:**\n")
	sb.WriteString("Com base na **combinação de todos os dados acima**, forneça uma análise concisa em Markdown.\n")
	sb.WriteString("Comece com um **Diagnóstico Geral** (Ex: \"A demanda para o período se apresenta ALTA e com tendência de AQUECIMENTO.\").\n")
	sb.WriteString("Depois, justifique em **Pontos-Chave**, conectando os sinais (Ex: \"A alta de 20% nos preços dos concorrentes é sustentada pelo 'Congresso de TI' (impacto 8/10), que está gerando alto buzz nas redes.\").\n")
	sb.WriteString("Finalize com uma **Recomendação Estratégica** clara e direta para um pequeno hoteleiro.\n")

	return sb.String()
}

func renderSignals(signals []report.SocialBuzzSignal) string {
	if len(signals) == 0 {
		return `[{"content": "Nenhum sinal de buzz social de alto impacto detectado."}]` + "\n"
	}
	encoded, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return "[]\n"
	}
	return string(encoded) + "\n"
}

func renderNews(news []report.NewsArticle) string {
	if len(news) == 0 {
		return `[{"title": "Nenhuma notícia de grande impacto no turismo local."}]` + "\n"
	}
	encoded, err := json.MarshalIndent(news, "", "  ")
	if err != nil {
		return "[]\n"
	}
	return string(encoded) + "\n"
}

// Synthesize produces the final Markdown report from the dossier.
func (s *Synthesizer) Synthesize(ctx context.Context, data *report.StructuredData, start, end time.Time) (string, error) {
	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Model: s.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: BuildDossier(data, start, end)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "synthesize market report")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.Wrap(errors.ErrModelEmptyResponse, "market report synthesis")
	}
	return resp.Choices[0].Message.Content, nil
}
