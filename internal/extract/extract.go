// Package extract implements the Output Extractor: projecting a
// connector's structured result into a step's named outputs via
// JSON-path expressions.
package extract

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/weftrun/weft/internal/config"
	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

// Extract projects data (a connector result's Data field) into a
// name -> value mapping per the step's declared output specs. Later
// specs sharing a name overwrite earlier ones.
func Extract(stepName string, data any, specs []config.OutputSpec) (map[string]any, error) {
	outputs := make(map[string]any, len(specs))
	if len(specs) == 0 {
		return outputs, nil
	}

	var encoded []byte
	var encodeErr error
	needsJSON := false
	for _, spec := range specs {
		if spec.Kind == config.OutputKindPath {
			needsJSON = true
			break
		}
	}
	if needsJSON {
		encoded, encodeErr = json.Marshal(data)
	}

	for _, spec := range specs {
		switch spec.Kind {
		case config.OutputKindRaw:
			outputs[spec.Name] = data
		case config.OutputKindPath:
			if encodeErr != nil {
				return nil, streamyerrors.NewOutputError(stepName, spec.Name, "cannot encode connector data as JSON", encodeErr)
			}
			result := gjson.GetBytes(encoded, spec.Value)
			if !result.Exists() {
				return nil, streamyerrors.NewOutputError(stepName, spec.Name, "path "+spec.Value+" did not match connector data", nil)
			}
			outputs[spec.Name] = decodeGJSON(result)
		default:
			return nil, streamyerrors.NewOutputError(stepName, spec.Name, "unknown output kind "+string(spec.Kind), nil)
		}
	}

	return outputs, nil
}

// decodeGJSON converts a gjson.Result into a plain Go value matching the
// shape json.Unmarshal would have produced, so downstream template
// rendering sees ordinary map[string]any/[]any/scalars.
func decodeGJSON(r gjson.Result) any {
	switch r.Type {
	case gjson.String:
		return r.String()
	case gjson.Number:
		return r.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	case gjson.JSON:
		if r.IsArray() {
			items := r.Array()
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = decodeGJSON(item)
			}
			return out
		}
		out := make(map[string]any)
		r.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = decodeGJSON(value)
			return true
		})
		return out
	default:
		return r.Value()
	}
}
