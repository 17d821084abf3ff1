// Package kafka publishes audit events to a Kafka-compatible broker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"census/pkg/platform/audit"
	"census/pkg/platform/circuit"
)

// ErrCircuitOpen is returned when events are being dropped because the
// broker kept failing. Audit delivery is best-effort, so callers log and
// move on.
var ErrCircuitOpen = errors.New("audit publisher circuit is open")

// probeInterval is how often an open circuit lets one produce through to
// test whether the broker recovered.
const probeInterval = 5 * time.Second

// Publisher writes audit events to a single topic, keyed by import_id so all
// events of one import land in one partition, in order. A broker outage
// trips the breaker and events are dropped instead of stalling requests.
type Publisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker

	mu        sync.Mutex
	lastProbe time.Time
}

// New connects to the brokers and makes sure the audit topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(3)),
	}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic %q: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %q: %w", topic, res.Err)
		}
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	if p.breaker.IsOpen() && !p.shouldProbe() {
		return ErrCircuitOpen
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(event.ImportID, 10)),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.breaker.RecordFailure()
		return fmt.Errorf("produce audit event: %w", err)
	}
	p.breaker.RecordSuccess()
	return nil
}

// shouldProbe rate-limits produce attempts while the circuit is open.
func (p *Publisher) shouldProbe() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.lastProbe) < probeInterval {
		return false
	}
	p.lastProbe = time.Now()
	return true
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close() {
	p.client.Close()
}
