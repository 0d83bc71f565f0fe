package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Event types published for downstream consumers (calendar sync, analytics)
const (
	TypeTaskCompleted = "task.completed"
	TypeTaskCreated   = "task.created"
	TypeTaskCancelled = "task.cancelled"
	TypeMomentsSwept  = "moments.swept"
)

// Event is the JSON envelope published to the topic
type Event struct {
	Type        string      `json:"type"`
	HouseholdID string      `json:"household_id,omitempty"`
	TaskID      string      `json:"task_id,omitempty"`
	ActorID     string      `json:"actor_id,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// Encode renders the message body and attributes of an event
func Encode(evt Event) (*pubsub.Message, error) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{"type": evt.Type}
	if evt.HouseholdID != "" {
		attrs["household_id"] = evt.HouseholdID
	}
	return &pubsub.Message{Data: data, Attributes: attrs}, nil
}

// Publisher publishes task lifecycle events to a Pub/Sub topic
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher connects to Pub/Sub. The topic must already exist.
func NewPublisher(ctx context.Context, projectID, topicName, credentialsFile string) (*Publisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check topic %s: %w", topicName, err)
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("topic %s does not exist", topicName)
	}

	log.Printf("[PubSub] Publishing task events to topic: %s", topicName)
	return &Publisher{client: client, topic: topic}, nil
}

// Publish sends the event and waits for the server acknowledgement
func (p *Publisher) Publish(ctx context.Context, evt Event) error {
	msg, err := Encode(evt)
	if err != nil {
		return err
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	log.Printf("[PubSub] Published %s (message %s)", evt.Type, id)
	return nil
}

// Close flushes pending messages and releases the client
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
