package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestEncodeMessageDefaultsVersion(t *testing.T) {
	payload, err := EncodeMessage(Message{EventID: "e1", Action: "document.upload", UserID: "alice"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(payload), `"version":1`) {
		t.Fatalf("expected version 1 in %s", payload)
	}
}

func TestDecodeMessageRejectsNewerVersion(t *testing.T) {
	if _, err := DecodeMessage([]byte(`{"eventId":"e1","version":9}`)); err == nil {
		t.Fatalf("expected version error")
	}
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	api := &fakeSQS{}
	client := NewSQSClientWithAPI(api, "https://sqs.test/queue")

	msg := Message{EventID: "e1", Action: "user.delete", UserID: "bob"}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(api.input.QueueUrl) != "https://sqs.test/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(api.input.QueueUrl))
	}
	if got := aws.ToString(api.input.MessageAttributes["action"].StringValue); got != "user.delete" {
		t.Fatalf("unexpected action attribute %q", got)
	}
	decoded, err := DecodeMessage([]byte(aws.ToString(api.input.MessageBody)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.UserID != "bob" || decoded.Version != MessageVersion {
		t.Fatalf("unexpected body %+v", decoded)
	}
}

func TestSQSClientSendError(t *testing.T) {
	client := NewSQSClientWithAPI(&fakeSQS{err: errors.New("throttled")}, "q")
	if err := client.Send(context.Background(), Message{EventID: "e1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMemoryClientRecords(t *testing.T) {
	var m MemoryClient
	_ = m.Send(context.Background(), Message{EventID: "a"})
	_ = m.Send(context.Background(), Message{EventID: "b"})
	if got := m.Sent(); len(got) != 2 || got[1].EventID != "b" {
		t.Fatalf("unexpected sent %+v", got)
	}
}
