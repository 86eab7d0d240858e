// internal/analysis/narrative.go
package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wateryu2030/yykhotdog-sub001/internal/aigateway"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// narrativeSchema validates provider replies before they are trusted.
// Providers are asked for strict JSON; anything that fails here goes through
// the best-effort section parser instead.
const narrativeSchema = `{
	"type": "object",
	"required": ["summary", "strengths", "weaknesses", "risks", "recommendations"],
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"weaknesses": {"type": "array", "items": {"type": "string"}},
		"risks": {"type": "array", "items": {"type": "string"}},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	}
}`

var narrativeSchemaLoader = gojsonschema.NewStringLoader(narrativeSchema)

// buildNarrativeMessages builds the JSON-mode prompt from the quantitative
// results.
func buildNarrativeMessages(location string, features models.FeatureSet, score *models.ScoreResult, prediction *models.MLPrediction) []aigateway.Message {
	featureJSON, _ := json.Marshal(features)
	scoreJSON, _ := json.Marshal(score)
	predictionJSON, _ := json.Marshal(prediction)

	var sb strings.Builder
	sb.WriteString("Evaluate the following candidate restaurant location.\n")
	sb.WriteString(fmt.Sprintf("\nLocation: %s\n", location))
	sb.WriteString(fmt.Sprintf("\nGeo features:\n%s\n", featureJSON))
	sb.WriteString(fmt.Sprintf("\nScore breakdown:\n%s\n", scoreJSON))
	sb.WriteString(fmt.Sprintf("\nRevenue prediction:\n%s\n", predictionJSON))
	sb.WriteString("\nReply with a single JSON object and nothing else, using exactly these keys: ")
	sb.WriteString(`"summary" (string), "strengths", "weaknesses", "risks", "recommendations" (arrays of short strings).`)

	return []aigateway.Message{
		{Role: "system", Content: "You are a site selection analyst for a restaurant chain. You answer with strict JSON only."},
		{Role: "user", Content: sb.String()},
	}
}

// parseNarrative extracts a Narrative from provider output. Strict JSON is
// the contract; the regex section parser is a documented best-effort
// fallback for providers that drift from it.
func parseNarrative(content string) *models.Narrative {
	cleaned := stripCodeFence(content)

	if n := parseJSONNarrative(cleaned); n != nil {
		return n
	}

	return parseSectionNarrative(cleaned)
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func parseJSONNarrative(content string) *models.Narrative {
	result, err := gojsonschema.Validate(narrativeSchemaLoader, gojsonschema.NewStringLoader(content))
	if err != nil || !result.Valid() {
		return nil
	}

	var parsed struct {
		Summary         string   `json:"summary"`
		Strengths       []string `json:"strengths"`
		Weaknesses      []string `json:"weaknesses"`
		Risks           []string `json:"risks"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}

	return &models.Narrative{
		Summary:         parsed.Summary,
		Strengths:       parsed.Strengths,
		Weaknesses:      parsed.Weaknesses,
		Risks:           parsed.Risks,
		Recommendations: parsed.Recommendations,
	}
}

// Section headers accepted by the fallback parser. Chinese variants are kept
// because provider drift into Chinese headers was the original failure mode.
var sectionPatterns = map[string]*regexp.Regexp{
	"strengths":       regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:strengths?|优势)\s*[:：]?\s*$`),
	"weaknesses":      regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:weaknesses?|劣势)\s*[:：]?\s*$`),
	"risks":           regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:risks?|风险)\s*[:：]?\s*$`),
	"recommendations": regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:recommendations?|建议)\s*[:：]?\s*$`),
}

var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.、)])\s*(.+)$`)

func parseSectionNarrative(content string) *models.Narrative {
	lines := strings.Split(content, "\n")

	narrative := &models.Narrative{Source: "regex-fallback"}
	var current *[]string
	var summaryLines []string

	for _, line := range lines {
		matched := false
		for name, pattern := range sectionPatterns {
			if pattern.MatchString(line) {
				switch name {
				case "strengths":
					current = &narrative.Strengths
				case "weaknesses":
					current = &narrative.Weaknesses
				case "risks":
					current = &narrative.Risks
				case "recommendations":
					current = &narrative.Recommendations
				}
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if current != nil {
			if m := bulletPattern.FindStringSubmatch(line); m != nil {
				*current = append(*current, strings.TrimSpace(m[1]))
			}
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			summaryLines = append(summaryLines, trimmed)
		}
	}

	narrative.Summary = strings.Join(summaryLines, " ")
	if narrative.Summary == "" && len(narrative.Strengths) == 0 &&
		len(narrative.Weaknesses) == 0 && len(narrative.Risks) == 0 &&
		len(narrative.Recommendations) == 0 {
		// Nothing recognizable; keep the raw text so the caller still gets
		// some qualitative output.
		narrative.Summary = strings.TrimSpace(content)
	}
	return narrative
}

// ruleNarrative builds a deterministic narrative from the quantitative
// results when every AI provider is exhausted or disabled.
func ruleNarrative(location string, score *models.ScoreResult, prediction *models.MLPrediction) *models.Narrative {
	n := &models.Narrative{
		Summary: fmt.Sprintf("%s scores %.2f (%s) for commercial viability with %s market potential and %s risk.",
			location, score.OverallScore, score.Grade, prediction.MarketPotential, prediction.RiskLevel),
		Source: "rule-based",
	}

	for dim, sub := range score.SubScores {
		switch {
		case sub >= 70:
			n.Strengths = append(n.Strengths, fmt.Sprintf("strong %s score (%.0f)", dim, sub))
		case sub < 40:
			n.Weaknesses = append(n.Weaknesses, fmt.Sprintf("weak %s score (%.0f)", dim, sub))
		}
	}

	n.Risks = append(n.Risks, prediction.RiskFactors...)
	n.Recommendations = append(n.Recommendations, prediction.Strategy...)
	return n
}
