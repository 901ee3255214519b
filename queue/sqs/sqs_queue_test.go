package sqs

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	awssqs "github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/go-flo/flo"
	"github.com/stretchr/testify/require"
)

// fakeSQS implements just enough of the SQS API to exercise the adapter
type fakeSQS struct {
	sqsiface.SQSAPI
	messages   []string
	nextID     int
	deliveries map[string]int
	deleted    []string
	visibility map[string]int64
}

func createFakeSQS() *fakeSQS {
	return &fakeSQS{
		deliveries: make(map[string]int),
		visibility: make(map[string]int64),
	}
}

func (f *fakeSQS) SendMessageWithContext(ctx aws.Context, input *awssqs.SendMessageInput, opts ...request.Option) (*awssqs.SendMessageOutput, error) {
	f.messages = append(f.messages, *input.MessageBody)
	return &awssqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) SendMessageBatchWithContext(ctx aws.Context, input *awssqs.SendMessageBatchInput, opts ...request.Option) (*awssqs.SendMessageBatchOutput, error) {
	if len(input.Entries) > 10 {
		return nil, fmt.Errorf("batch of %d exceeds the SQS limit", len(input.Entries))
	}
	for _, entry := range input.Entries {
		f.messages = append(f.messages, *entry.MessageBody)
	}
	return &awssqs.SendMessageBatchOutput{}, nil
}

func (f *fakeSQS) ReceiveMessageWithContext(ctx aws.Context, input *awssqs.ReceiveMessageInput, opts ...request.Option) (*awssqs.ReceiveMessageOutput, error) {
	out := &awssqs.ReceiveMessageOutput{}
	n := int(*input.MaxNumberOfMessages)
	for len(out.Messages) < n && len(f.messages) > 0 {
		body := f.messages[0]
		f.messages = f.messages[1:]
		f.nextID++
		id := strconv.Itoa(f.nextID)
		f.deliveries[body]++
		out.Messages = append(out.Messages, &awssqs.Message{
			MessageId:     aws.String(id),
			Body:          aws.String(body),
			ReceiptHandle: aws.String("receipt-" + id),
			Attributes: map[string]*string{
				awssqs.MessageSystemAttributeNameApproximateReceiveCount: aws.String(strconv.Itoa(f.deliveries[body])),
			},
		})
	}
	return out, nil
}

func (f *fakeSQS) DeleteMessageWithContext(ctx aws.Context, input *awssqs.DeleteMessageInput, opts ...request.Option) (*awssqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, *input.ReceiptHandle)
	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibilityWithContext(ctx aws.Context, input *awssqs.ChangeMessageVisibilityInput, opts ...request.Option) (*awssqs.ChangeMessageVisibilityOutput, error) {
	f.visibility[*input.ReceiptHandle] = *input.VisibilityTimeout
	if *input.VisibilityTimeout == 0 {
		// immediate redelivery
		f.messages = append(f.messages, "requeued")
	}
	return &awssqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) GetQueueAttributesWithContext(ctx aws.Context, input *awssqs.GetQueueAttributesInput, opts ...request.Option) (*awssqs.GetQueueAttributesOutput, error) {
	return &awssqs.GetQueueAttributesOutput{
		Attributes: map[string]*string{
			awssqs.QueueAttributeNameApproximateNumberOfMessages: aws.String(strconv.Itoa(len(f.messages))),
		},
	}, nil
}

func TestSQSEnqueueDequeue(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", nil)
	ctx := context.Background()
	require.Nil(t, q.Enqueue(ctx, []byte("hello")))
	count, err := q.Count(ctx)
	require.Nil(t, err)
	require.Equal(t, int64(1), count)
	msg, ok, err := q.TryDequeue(ctx)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", string(msg.Body))
	require.Equal(t, 1, msg.DeliveryCount)
	require.Equal(t, flo.LeaseActive, msg.Lease.State())
}

func TestSQSEnqueueBatchChunks(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", nil)
	bodies := make([][]byte, 23)
	for i := range bodies {
		bodies[i] = []byte(strconv.Itoa(i))
	}
	require.Nil(t, q.EnqueueBatch(context.Background(), bodies))
	require.Len(t, fake.messages, 23)
}

func TestSQSReleaseDeletesMessage(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", nil)
	ctx := context.Background()
	require.Nil(t, q.Enqueue(ctx, []byte("m")))
	msg, ok, err := q.TryDequeue(ctx)
	require.Nil(t, err)
	require.True(t, ok)
	require.Nil(t, msg.Lease.Release(ctx))
	require.Equal(t, flo.LeaseReleased, msg.Lease.State())
	require.Len(t, fake.deleted, 1)
	// settled leases reject further operations
	require.NotNil(t, msg.Lease.Fault(ctx))
}

func TestSQSFaultZeroesVisibility(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", nil)
	ctx := context.Background()
	require.Nil(t, q.Enqueue(ctx, []byte("m")))
	msg, ok, err := q.TryDequeue(ctx)
	require.Nil(t, err)
	require.True(t, ok)
	require.Nil(t, msg.Lease.Fault(ctx))
	require.Equal(t, flo.LeaseFaulted, msg.Lease.State())
	require.Equal(t, int64(0), fake.visibility["receipt-1"])
}

func TestSQSRenewChangesVisibility(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", &Conf{VisibilityTimeout: 45})
	ctx := context.Background()
	require.Nil(t, q.Enqueue(ctx, []byte("m")))
	msg, ok, err := q.TryDequeue(ctx)
	require.Nil(t, err)
	require.True(t, ok)
	require.Nil(t, msg.Lease.Renew(ctx, 0))
	// a non-positive extension falls back to the configured timeout
	require.Equal(t, int64(45), fake.visibility["receipt-1"])
}

func TestSQSDequeueBatch(t *testing.T) {
	fake := createFakeSQS()
	q := CreateQueueWithClient(fake, "https://example.com/q", nil)
	ctx := context.Background()
	bodies := make([][]byte, 15)
	for i := range bodies {
		bodies[i] = []byte(strconv.Itoa(i))
	}
	require.Nil(t, q.EnqueueBatch(ctx, bodies))
	msgs, err := q.DequeueBatch(ctx, 15)
	require.Nil(t, err)
	require.Len(t, msgs, 15)
}
