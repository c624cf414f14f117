package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// buildOTLPMetricExporter exports over OTLP/HTTP. A leading http:// selects
// a plaintext connection.
func buildOTLPMetricExporter(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{}
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		opts = append(opts, otlpmetrichttp.WithEndpoint(strings.TrimPrefix(endpoint, "http://")), otlpmetrichttp.WithInsecure())
	case strings.HasPrefix(endpoint, "https://"):
		opts = append(opts, otlpmetrichttp.WithEndpoint(strings.TrimPrefix(endpoint, "https://")))
	default:
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}
