//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("hydro-priority-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// inspectionRecords is a small registry extract in importer format.
func inspectionRecords() []map[string]any {
	return []map[string]any{
		{"id": "bukhtarma-lock", "name": "Bukhtarma navigation lock", "region": "East Kazakhstan Region", "resource_type": "шлюз", "water_type": "нет", "fauna": false, "passport_date": "2022-05-01", "technical_condition": 3, "latitude": 49.15, "longitude": 84.05},
		{"id": "kapshagay", "name": "Kapshagay", "region": "Almaty Region", "resource_type": "водохранилище", "water_type": "пресная", "fauna": "да", "passport_date": "2015-03-14", "technical_condition": 2, "latitude": 43.87, "longitude": 77.07},
		{"id": "koksaray", "name": "Koksaray counter-regulator", "region": "Turkistan Region", "resource_type": "hydro_complex", "water_type": "fresh", "fauna": true, "passport_date": "2019-11-20", "technical_condition": "5", "latitude": 42.6, "longitude": 68.2},
		{"id": "small-aral", "name": "Small Aral", "region": "Kyzylorda Region", "resource_type": "lake", "water_type": "saline", "fauna": true, "passport_date": "2012-08-01", "technical_condition": 4},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
