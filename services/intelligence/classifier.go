package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const intentSchema = `{
	"type": "object",
	"required": ["is_reminder"],
	"properties": {
		"is_reminder": {"type": "boolean"},
		"datetime": {"type": "string"},
		"description": {"type": "string"}
	},
	"if": {"properties": {"is_reminder": {"const": true}}},
	"then": {
		"required": ["datetime", "description"],
		"properties": {
			"datetime": {"minLength": 1},
			"description": {"minLength": 1}
		}
	}
}`

// ValidationError explains why a model answer was not accepted as a reminder.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("intent rejected: %s: %v", e.Reason, e.Err)
	}
	return "intent rejected: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

type intentPayload struct {
	IsReminder  bool   `json:"is_reminder"`
	Datetime    string `json:"datetime"`
	Description string `json:"description"`
}

// Classifier decides whether a message asks for a reminder. It never fails:
// anything it cannot trust becomes models.NotAReminder().
type Classifier struct {
	gen    TextGenerator
	loc    *time.Location
	schema *jsonschema.Schema
	logger *zap.Logger
}

func NewClassifier(gen TextGenerator, loc *time.Location, logger *zap.Logger) (*Classifier, error) {
	compiler := jsonschema.NewCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(intentSchema))
	if err != nil {
		return nil, fmt.Errorf("invalid intent schema: %w", err)
	}
	if err := compiler.AddResource("intent.json", doc); err != nil {
		return nil, fmt.Errorf("invalid intent schema: %w", err)
	}
	schema, err := compiler.Compile("intent.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile intent schema: %w", err)
	}

	return &Classifier{gen: gen, loc: loc, schema: schema, logger: logger.Named("classifier")}, nil
}

// Classify asks the model about text, resolving relative times against now.
func (c *Classifier) Classify(ctx context.Context, text string, now time.Time) models.Intent {
	raw, err := c.gen.GenerateContent(ctx, intentPrompt(text, now.In(c.loc)))
	if err != nil {
		c.logger.Warn("intent generation failed", zap.Error(err))
		return models.NotAReminder()
	}

	intent, err := c.parse(raw, now)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.logger.Info("not scheduling", zap.String("reason", verr.Reason), zap.Error(verr.Err), zap.String("raw", raw))
		}
		return models.NotAReminder()
	}
	return intent
}

func (c *Classifier) parse(raw string, now time.Time) (models.Intent, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return models.Intent{}, &ValidationError{Reason: "no JSON object in response"}
	}
	body := raw[start : end+1]

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return models.Intent{}, &ValidationError{Reason: "malformed JSON", Err: err}
	}
	if err := c.schema.Validate(doc); err != nil {
		return models.Intent{}, &ValidationError{Reason: "schema mismatch", Err: err}
	}

	var p intentPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return models.Intent{}, &ValidationError{Reason: "malformed JSON", Err: err}
	}
	if !p.IsReminder {
		return models.NotAReminder(), nil
	}

	at, err := time.ParseInLocation(utils.IntentLayout, strings.TrimSpace(p.Datetime), c.loc)
	if err != nil {
		return models.Intent{}, &ValidationError{Reason: "unparseable datetime", Err: err}
	}
	if at.Before(now) {
		return models.Intent{}, &ValidationError{Reason: "datetime in the past", Err: fmt.Errorf("%s before %s", at.Format(utils.ScheduleLayout), now.In(c.loc).Format(utils.ScheduleLayout))}
	}

	return models.Intent{
		IsReminder:  true,
		ScheduledAt: at,
		Description: strings.TrimSpace(p.Description),
	}, nil
}
