package internal

import (
	"context"
	"sync"
)

// TelemetryEmitter receives named measurements from the store. Service wiring
// may register a metrics backend; the default discards everything.
type TelemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl TelemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter installs fn. Passing nil restores the no-op emitter.
func RegisterTelemetryEmitter(fn TelemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emitter() TelemetryEmitter {
	teleMu.Lock()
	defer teleMu.Unlock()
	return teleImpl
}

// EmitLatency records a latency measure (milliseconds) for a store operation.
// name: "eav_operation_latency_ms" with label {"operation": "<name>"}
func EmitLatency(ctx context.Context, operation string, ms int64) {
	emitter()(ctx, "eav_operation_latency_ms", map[string]string{"operation": operation}, ms)
}

// EmitRowCount records how many rows an operation returned or removed.
// name: "eav_operation_rows" with label {"operation": "<name>"}
func EmitRowCount(ctx context.Context, operation string, rows int64) {
	emitter()(ctx, "eav_operation_rows", map[string]string{"operation": operation}, rows)
}
