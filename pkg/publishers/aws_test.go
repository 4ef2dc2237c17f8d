package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func sampleEvent() Event {
	return NewEvent("provider-1", "Provider One", "link-1", mercury.Article{
		Title:  "Hello",
		URL:    "https://example.com/story",
		Domain: "example.com",
	})
}

func TestSQSPublisherSendsEventBody(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", queueURL: "https://sqs.local/queue", client: client, log: ensureLogger(nil)}

	evt := sampleEvent()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://sqs.local/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &decoded); err != nil {
		t.Fatalf("body is not an event: %v", err)
	}
	if decoded.ID != evt.ID || decoded.Article.Title != "Hello" {
		t.Fatalf("unexpected decoded event: %#v", decoded)
	}

	attr, ok := client.input.MessageAttributes["provider_id"]
	if !ok || aws.ToString(attr.StringValue) != "provider-1" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("provider_id attribute missing or wrong: %#v", attr)
	}
	if d := client.input.MessageAttributes["domain"]; aws.ToString(d.StringValue) != "example.com" {
		t.Fatalf("domain attribute = %v", aws.ToString(d.StringValue))
	}
}

func TestSQSPublisherWrapsError(t *testing.T) {
	boom := errors.New("boom")
	pub := &sqsPublisher{id: "q", client: &fakeSQSClient{err: boom}, log: ensureLogger(nil)}
	if err := pub.Publish(context.Background(), sampleEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestSNSPublisherSendsEvent(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "t", topicARN: "arn:aws:sns:us-east-1:000000000000:articles", client: client, log: ensureLogger(nil)}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:us-east-1:000000000000:articles" {
		t.Fatalf("TopicArn = %s", got)
	}
	if _, ok := client.input.MessageAttributes["event_id"]; !ok {
		t.Fatalf("expected event_id attribute")
	}
}

func TestSNSPublisherWrapsError(t *testing.T) {
	boom := errors.New("boom")
	pub := &snsPublisher{id: "t", client: &fakeSNSClient{err: boom}, log: ensureLogger(nil)}
	if err := pub.Publish(context.Background(), sampleEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestLoadAWSConfigStaticCredentialsAndEndpoint(t *testing.T) {
	cfg, err := loadAWSConfig(context.Background(), AWSConfig{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("loadAWSConfig: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("Region = %s", cfg.Region)
	}
	if aws.ToString(cfg.BaseEndpoint) != "http://localhost:4566" {
		t.Fatalf("BaseEndpoint = %v", aws.ToString(cfg.BaseEndpoint))
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKID" {
		t.Fatalf("AccessKeyID = %s", creds.AccessKeyID)
	}
}
