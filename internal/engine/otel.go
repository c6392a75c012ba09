package engine

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/foogaro/kinexis")
