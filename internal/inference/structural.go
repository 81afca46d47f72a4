package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cryptopredict/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

// ErrMalformed marks model output that failed the structural check.
var ErrMalformed = errors.New("malformed model output")

// CheckStructure is the hard gate: the output must contain a JSON object that
// satisfies the kind's schema. Anything else is ErrMalformed.
func CheckStructure(kind Kind, raw string) (gjson.Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gjson.Result{}, fmt.Errorf("%w: empty content", ErrMalformed)
	}
	obj, ok := jsonutil.ExtractJSON(raw)
	if !ok || !gjson.Valid(obj) {
		return gjson.Result{}, fmt.Errorf("%w: no valid JSON object", ErrMalformed)
	}
	sch, ok := compiledSchemas[kind]
	if !ok {
		return gjson.Result{}, fmt.Errorf("unknown task kind %q", kind)
	}
	var doc any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := sch.Validate(doc); err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return gjson.Parse(obj), nil
}
