package builtin

import (
	"os"

	"github.com/weftrun/weft/internal/connector"
)

type envConnector struct {
	keys []string
}

// NewEnv constructs a connector that reads environment variables.
// configuration: {keys?: [string]}. An empty/omitted keys list reads
// every variable os.Environ reports.
func NewEnv(configuration map[string]any) (connector.Connector, error) {
	var keys []string
	if raw, ok := configuration["keys"].([]any); ok {
		for _, k := range raw {
			if s, ok := k.(string); ok {
				keys = append(keys, s)
			}
		}
	}
	return &envConnector{keys: keys}, nil
}

func (e *envConnector) Call(input any) (connector.Result, error) {
	values := make(map[string]any)
	if len(e.keys) == 0 {
		for _, kv := range os.Environ() {
			k, v := splitEnv(kv)
			values[k] = v
		}
	} else {
		for _, k := range e.keys {
			if v, ok := os.LookupEnv(k); ok {
				values[k] = v
			}
		}
	}
	return connector.Result{Status: connector.Status{Success: true}, Data: values}, nil
}

func splitEnv(kv string) (string, string) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:]
		}
	}
	return kv, ""
}
