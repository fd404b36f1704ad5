package dsstelemetry

import (
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/sdk/trace"
)

// createSampler builds a trace.Sampler from the configured sampler type.
func createSampler(cfg *Config) (trace.Sampler, error) {
	samplerType := cfg.Sampler
	if samplerType == "" {
		samplerType = "always_on"
	}

	switch samplerType {
	case "always_on":
		return trace.AlwaysSample(), nil
	case "always_off":
		return trace.NeverSample(), nil
	case "traceidratio":
		ratio, err := parseRatio(cfg.SamplerArg)
		if err != nil {
			return nil, err
		}
		return trace.TraceIDRatioBased(ratio), nil
	case "parentbased_always_on":
		return trace.ParentBased(trace.AlwaysSample()), nil
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample()), nil
	case "parentbased_traceidratio":
		ratio, err := parseRatio(cfg.SamplerArg)
		if err != nil {
			return nil, err
		}
		return trace.ParentBased(trace.TraceIDRatioBased(ratio)), nil
	default:
		return nil, fmt.Errorf("unsupported sampler type: %s", samplerType)
	}
}

func parseRatio(arg string) (float64, error) {
	if arg == "" {
		return 1.0, nil
	}
	ratio, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sampler arg %q: %w", arg, err)
	}
	if ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("sampler ratio must be in [0,1], got %f", ratio)
	}
	return ratio, nil
}
