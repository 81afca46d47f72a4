package inference

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// numericSchema admits numbers and numeric strings such as "0.9".
const numericSchema = `{"type": ["number", "string"], "pattern": "^\\s*[-+]?([0-9]+\\.?[0-9]*|\\.[0-9]+)\\s*$"}`

// Sources reference numericSchema as {{numeric}}.
var schemaSources = map[Kind]string{
	KindSentiment: `{
		"type": "object",
		"anyOf": [{"required": ["sentiment_label"]}, {"required": ["sentiment_score"]}],
		"properties": {
			"sentiment_label": {"type": "string"},
			"sentiment_score": {{numeric}},
			"confidence": {{numeric}},
			"key_factors": {"type": "array"}
		}
	}`,
	KindPrediction: `{
		"type": "object",
		"required": ["sentiment_summary", "key_factors"],
		"properties": {
			"sentiment_summary": {"type": "object"},
			"key_factors": {"type": "array", "minItems": 1},
			"confidence": {{numeric}}
		}
	}`,
	KindCausal: `{
		"type": "object",
		"required": ["causal_relationship", "trend_prediction"],
		"properties": {
			"causal_relationship": {"type": "object"},
			"trend_prediction": {"type": "object"}
		}
	}`,
	KindLine: `{
		"type": "object",
		"required": ["predicted_prices"],
		"properties": {
			"predicted_prices": {"type": "array", "minItems": 2, "items": {"type": "number"}},
			"confidence": {{numeric}}
		}
	}`,
}

var compiledSchemas = mustCompileSchemas()

func mustCompileSchemas() map[Kind]*jsonschema.Schema {
	out := make(map[Kind]*jsonschema.Schema, len(schemaSources))
	for kind, src := range schemaSources {
		sch, err := compileSchema(string(kind)+".json", strings.ReplaceAll(src, "{{numeric}}", numericSchema))
		if err != nil {
			panic(fmt.Sprintf("compile %s schema: %v", kind, err))
		}
		out[kind] = sch
	}
	return out
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}
