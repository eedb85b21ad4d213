package audit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/honorarios/honorarios/internal/domain/procedure"
)

const extractionPrompt = "Extract medical billing data from this insurer statement. " +
	"For each procedure, provide: patientName, date (ISO string YYYY-MM-DD), procedureName, " +
	"tussCode, procedureValue (number), glosaAmount (number), and status ('pago' or 'glosa'). " +
	"Return as a clean JSON array."

// GeminiExtractor calls the Gemini generateContent REST endpoint with the
// statement document inlined and a response schema that forces a JSON
// array of line items.
type GeminiExtractor struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewGeminiExtractor(apiKey, model, baseURL string, logger zerolog.Logger) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger.With().Str("component", "gemini").Logger(),
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
	Text       string            `json:"text,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema"`
}

var lineItemSchema = json.RawMessage(`{
	"type": "ARRAY",
	"items": {
		"type": "OBJECT",
		"properties": {
			"patientName": {"type": "STRING"},
			"date": {"type": "STRING"},
			"procedureName": {"type": "STRING"},
			"tussCode": {"type": "STRING"},
			"procedureValue": {"type": "NUMBER"},
			"glosaAmount": {"type": "NUMBER"},
			"status": {"type": "STRING"}
		},
		"required": ["patientName", "date", "procedureValue", "status"]
	}
}`)

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// rawItem mirrors the schema the model is asked to fill in.
type rawItem struct {
	PatientName    string           `json:"patientName"`
	Date           string           `json:"date"`
	ProcedureName  string           `json:"procedureName"`
	TUSSCode       string           `json:"tussCode"`
	ProcedureValue *decimal.Decimal `json:"procedureValue"`
	GlosaAmount    *decimal.Decimal `json:"glosaAmount"`
	Status         string           `json:"status"`
}

func (g *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]LineItem, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
				{Text: extractionPrompt},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   lineItemSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &ExtractionError{Reason: "model call failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{Reason: "reading model response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn().Int("status", resp.StatusCode).Msg("gemini returned non-200")
		return nil, &ExtractionError{Reason: fmt.Sprintf("model returned status %d", resp.StatusCode)}
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, &ExtractionError{Reason: "decoding model response", Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &ExtractionError{Reason: "model returned no candidates"}
	}

	items, err := parseLineItems(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("statement extracted")
	return items, nil
}

// parseLineItems validates the model output strictly. A single bad line
// fails the whole batch so a run never applies half a statement.
func parseLineItems(text string) ([]LineItem, error) {
	var raw []rawItem
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &ExtractionError{Reason: "model output is not a JSON array", Err: err}
	}

	items := make([]LineItem, 0, len(raw))
	for i, r := range raw {
		if r.PatientName == "" {
			return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: missing patientName", i)}
		}
		if r.ProcedureValue == nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: missing procedureValue", i)}
		}
		if r.ProcedureValue.IsNegative() {
			return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: negative procedureValue", i)}
		}
		date, err := procedure.ParseDate(r.Date)
		if err != nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: bad date %q", i, r.Date)}
		}
		outcome := Outcome(r.Status)
		if outcome != OutcomePago && outcome != OutcomeGlosa {
			return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: unknown status %q", i, r.Status)}
		}
		glosa := decimal.Zero
		if r.GlosaAmount != nil {
			if r.GlosaAmount.IsNegative() {
				return nil, &ExtractionError{Reason: fmt.Sprintf("item %d: negative glosaAmount", i)}
			}
			glosa = *r.GlosaAmount
		}
		items = append(items, LineItem{
			PatientName:    r.PatientName,
			Date:           date,
			ProcedureName:  r.ProcedureName,
			TUSSCode:       r.TUSSCode,
			ProcedureValue: *r.ProcedureValue,
			GlosaAmount:    glosa,
			Outcome:        outcome,
		})
	}
	return items, nil
}
