package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"relocation-advisor/internal/config"
)

// Completer is the transport the Generator drives. Satisfied by *Client.
type Completer interface {
	Complete(ctx context.Context, spec CompletionSpec, structured bool) (string, error)
}

// Generator turns the unreliable completion service into a schema-conformant
// producer: native structured output first, then exactly one raw-text retry
// routed through the repair pipeline. A failure after that surfaces to the
// caller; the model is never re-prompted.
type Generator struct {
	client          Completer
	repairer        *Repairer
	coreMaxTokens   int
	detailMaxTokens int
}

func NewGenerator(client Completer, cfg config.LLMConfig) *Generator {
	return &Generator{
		client:          client,
		repairer:        NewRepairer(),
		coreMaxTokens:   cfg.CoreMaxOutputTokens,
		detailMaxTokens: cfg.DetailMaxOutputTokens,
	}
}

// GenerateCore runs the first-stage request against the user profile.
func (g *Generator) GenerateCore(ctx context.Context, profile any) (*CoreResult, error) {
	user, err := marshalInput(profile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log.Printf("[llm] Generating core recommendations...")

	var core CoreResult
	spec := CompletionSpec{
		System:          CorePrompt() + "\n\nReturn ONLY valid JSON. No markdown, no trailing commas.",
		User:            user,
		SchemaName:      "core_reco",
		Schema:          CoreSchema(),
		MaxOutputTokens: g.coreMaxTokens,
	}
	if err := g.generate(ctx, spec, func(data []byte) error {
		if err := json.Unmarshal(data, &core); err != nil {
			return err
		}
		return ValidateCore(&core)
	}); err != nil {
		return nil, err
	}

	if len(core.RecommendedAreas) == 0 {
		return nil, newGenerationError("core", "", fmt.Errorf("no recommended areas returned"))
	}

	log.Printf("[llm] ✅ Core completed in %.1fs: %d areas",
		time.Since(start).Seconds(), len(core.RecommendedAreas))
	return &core, nil
}

// GenerateAreaDetails runs the second-stage request for one area.
func (g *Generator) GenerateAreaDetails(ctx context.Context, profile any, area *CoreArea) (*AreaDetails, error) {
	user, err := marshalInput(map[string]any{"userProfile": profile, "area": area})
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var details AreaDetails
	spec := CompletionSpec{
		System:          DetailsPrompt() + "\n\nEach category MUST have 3 items. Return ONLY valid JSON.",
		User:            user,
		SchemaName:      "area_details",
		Schema:          AreaDetailsSchema(),
		MaxOutputTokens: g.detailMaxTokens,
	}
	if err := g.generate(ctx, spec, func(data []byte) error {
		details = AreaDetails{}
		if err := json.Unmarshal(data, &details); err != nil {
			return err
		}
		NormalizeDetails(&details)
		return ValidateDetails(&details)
	}); err != nil {
		return nil, err
	}

	log.Printf("[llm] ✅ Details for %q completed in %.1fs", area.Name, time.Since(start).Seconds())
	return &details, nil
}

// generate is the shared native-then-raw flow. decode parses, normalizes
// and validates into the caller's target.
func (g *Generator) generate(ctx context.Context, spec CompletionSpec, decode func([]byte) error) error {
	text, nativeErr := g.client.Complete(ctx, spec, true)
	if nativeErr == nil {
		if err := decode([]byte(sliceLikelyJSON(stripCodeFences(text)))); err == nil {
			return nil
		} else {
			log.Printf("[llm] Native structured parse failed for %s, retrying raw: %v", spec.SchemaName, err)
		}
	} else {
		log.Printf("[llm] Structured request failed for %s, retrying raw: %v", spec.SchemaName, nativeErr)
	}

	// Exactly one raw-text retry.
	raw, err := g.client.Complete(ctx, spec, false)
	if err != nil {
		return newGenerationError(spec.SchemaName, text, fmt.Errorf("raw retry failed: %w", err))
	}

	data, err := g.repairer.Repair(raw)
	if err != nil {
		return err
	}

	if err := decode(data); err != nil {
		return newGenerationError(spec.SchemaName, raw, fmt.Errorf("validation after repair: %w", err))
	}
	return nil
}

func marshalInput(v any) (string, error) {
	// Go's encoder escapes U+2028/U+2029, which is what the prompt needs.
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal prompt input: %w", err)
	}
	return string(b), nil
}
