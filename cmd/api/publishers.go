package main

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/infrastructure/events"
	"github.com/jhoicas/obrador-api/pkg/config"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

// buildPublishers arma los destinos de EVENTS_DRIVERS. Un destino que no conecta se omite con un
// error en el log: los eventos son best-effort y no deben impedir el arranque.
func buildPublishers(ctx context.Context, cfg *config.Config, log *logger.Logger, tp trace.TracerProvider) (replenishment.EventPublisher, func()) {
	var (
		pubs    events.MultiPublisher
		closers []func()
	)
	if cfg.Events.Enabled("log") {
		pubs = append(pubs, events.NewLogPublisher(log))
	}
	if cfg.Events.Enabled("redis") {
		client, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Error().Err(err).Msg("eventos: redis deshabilitado")
		} else {
			pubs = append(pubs, events.NewRedisPublisher(client, cfg.Events.RedisChannel))
			closers = append(closers, func() { _ = client.Close() })
		}
	}
	if cfg.Events.Enabled("kafka") {
		w, err := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Events.KafkaTopic, cfg.App.Name, tp)
		if err != nil {
			log.Error().Err(err).Msg("eventos: kafka deshabilitado")
		} else {
			kp := events.NewKafkaPublisher(w)
			pubs = append(pubs, kp)
			closers = append(closers, func() { _ = kp.Close() })
		}
	}
	log.Info().Strs("drivers", cfg.Events.Drivers).Int("activos", len(pubs)).Msg("publicadores de eventos")
	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}
}
