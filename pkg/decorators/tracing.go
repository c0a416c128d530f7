package decorators

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/odvcencio/crossover/pkg/experiment"
)

const tracerName = "github.com/odvcencio/crossover/pkg/decorators"

// Routing span attribute keys.
var (
	AttrContract    = attribute.Key("crossover.contract")
	AttrMethod      = attribute.Key("crossover.method")
	AttrScopeID     = attribute.Key("crossover.scope.id")
	AttrSelectedKey = attribute.Key("crossover.trial.selected")
	AttrFinalKey    = attribute.Key("crossover.trial.final")
	AttrAttempts    = attribute.Key("crossover.attempts")
)

// Tracing opens one span per invocation covering selection through
// execution, annotated with the selected and final trial keys and each
// failed attempt as a span event.
func Tracing() experiment.Decorator {
	tracer := otel.Tracer(tracerName)
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		spanName := inv.Contract
		if inv.Method != "" {
			spanName += "." + inv.Method
		}
		ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
		defer span.End()

		span.SetAttributes(
			AttrContract.String(inv.Contract),
			AttrMethod.String(inv.Method),
			AttrScopeID.String(inv.ScopeID),
		)

		out, err := next(ctx)

		span.SetAttributes(
			AttrSelectedKey.String(inv.SelectedKey),
			AttrFinalKey.String(inv.FinalKey),
			AttrAttempts.Int(len(inv.Attempts)),
		)
		for _, attempt := range inv.Attempts {
			if attempt.Err == nil {
				continue
			}
			span.AddEvent("trial.attempt.failed", trace.WithAttributes(
				attribute.String("crossover.trial.key", attempt.Key),
				attribute.String("crossover.trial.error", attempt.Err.Error()),
			))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return out, err
	}
}
