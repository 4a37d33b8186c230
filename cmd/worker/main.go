// Worker consumes robot events from Kafka and ships them to Loki, labeled by
// event type and scope. Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID,
// and LOKI_URL.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"robogo/backend/internal/config"
	"robogo/backend/internal/events"
	"robogo/backend/internal/events/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.EventsKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventsKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log.Printf("worker: consuming %s (group %s), shipping to %s",
		cfg.EventsKafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read: %v", err)
			continue
		}
		ship(ctx, cfg.LokiURL, msg.Value)
	}
}

// ship pushes one event message to Loki. Decodable events carry their type
// and scope as stream labels and keep their original timestamp; anything else
// goes out raw under the current time so no message is ever dropped.
func ship(ctx context.Context, lokiURL string, raw []byte) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ts := time.Now().UTC()
	var labels map[string]string
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err == nil && ev.Type != "" {
		labels = ev.Labels()
		if !ev.Timestamp.IsZero() {
			ts = ev.Timestamp
		}
	}
	if err := loki.Push(ctx, lokiURL, ts, string(raw), labels); err != nil {
		log.Printf("worker: loki push %s: %v", ev.Type, err)
	}
}
