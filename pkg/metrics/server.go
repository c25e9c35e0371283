// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"errors"
	"net"

	"github.com/arcentrix/runstream/pkg/http/middleware"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/safe"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ProviderSet = wire.NewSet(ProvideServer, ProvideRunMetrics)

// Server exposes a private prometheus registry on its own listener.
type Server struct {
	config   MetricsConfig
	registry *prometheus.Registry
	app      *fiber.App
}

func NewServer(config MetricsConfig) *Server {
	config.SetDefaults()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get(config.Path, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry: registry,
	})))

	return &Server{config: config, registry: registry, app: app}
}

// ProvideServer builds the server with the fiber request collectors registered.
func ProvideServer(config MetricsConfig) *Server {
	s := NewServer(config)
	if err := middleware.RegisterHttpMetrics(s.GetRegistry()); err != nil {
		log.Warnw("http metrics not registered", "error", err)
	}
	return s
}

func (s *Server) GetRegistry() *prometheus.Registry {
	return s.registry
}

// App returns the fiber app serving the metrics path.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens in the background. Disabled servers do nothing.
func (s *Server) Start() error {
	if !s.config.Enabled {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	log.Infow("metrics server listening", "addr", s.config.Addr(), "path", s.config.Path)
	safe.Go(func() {
		if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Errorw("metrics server stopped", "error", err)
		}
	})
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
