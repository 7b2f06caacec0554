package config

import (
	"fmt"

	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

// normalize materializes every step's source reference into a canonical
// {Type, Configuration} pair, resolving named, inline, and base+override
// forms. Fails with a ConfigError if a named base does not exist.
func normalize(doc rawDocument) (*NormalizedConfig, error) {
	flow := make([]StepDecl, len(doc.Flow))

	for i, step := range doc.Flow {
		resolved, err := resolveSource(step.Name, step.Source, doc.Sources)
		if err != nil {
			return nil, err
		}
		step.Source = resolved
		flow[i] = step
	}

	cfg := &NormalizedConfig{
		Sources: doc.Sources,
		Flow:    flow,
		Runner:  doc.Runner,
	}

	if cfg.Runner.OnError == "" {
		cfg.Runner.OnError = OnErrorFail
	}
	if cfg.Runner.MaxWorkers <= 0 {
		cfg.Runner.MaxWorkers = 4
	}

	return cfg, nil
}

func resolveSource(stepName string, ref SourceRef, sources map[string]SourceDecl) (SourceRef, error) {
	switch {
	case ref.Base != "":
		base, ok := sources[ref.Base]
		if !ok {
			return SourceRef{}, streamyerrors.NewConfigError(stepName, fmt.Sprintf("source override references unknown base %q", ref.Base), nil)
		}
		merged := mergeConfiguration(map[string]any{
			"type":          base.Type,
			"configuration": base.Configuration,
		}, ref.Override)
		resolvedType, _ := merged["type"].(string)
		resolvedCfg, _ := asStringMap(merged["configuration"])
		return SourceRef{Type: resolvedType, Configuration: resolvedCfg}, nil

	case ref.Name != "":
		named, ok := sources[ref.Name]
		if !ok {
			return SourceRef{}, streamyerrors.NewConfigError(stepName, fmt.Sprintf("step references unknown source %q", ref.Name), nil)
		}
		return SourceRef{Type: named.Type, Configuration: named.Configuration, Name: ref.Name}, nil

	case ref.Type != "":
		return SourceRef{Type: ref.Type, Configuration: ref.Configuration}, nil

	default:
		return SourceRef{}, streamyerrors.NewConfigError(stepName, "step source must be a named reference, an inline {type, configuration}, or a {base, override}", nil)
	}
}
