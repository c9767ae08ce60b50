package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Bootstrap configures the global tracer from JAEGER_* environment
// variables. The returned closer flushes pending spans at shutdown.
func Bootstrap(serviceName string) io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("failed to parse jaeger config from env: %v", err)
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		logrus.Warnf("failed to create jaeger tracer: %v", err)
		return nil
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}
