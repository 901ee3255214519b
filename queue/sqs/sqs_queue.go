// Package sqs adapts an AWS SQS queue to the flo Queue contract. SQS
// receive leases map directly onto flo leases: ChangeMessageVisibility
// renews, DeleteMessage releases, and faulting zeroes the visibility
// timeout so the queue's own redrive policy decides between retry and
// dead-lettering.
package sqs

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awssqs "github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
	uuid "github.com/gofrs/uuid"
)

const (
	defaultMaxRetries        = 5
	defaultVisibilityTimeout = int64(20)
	// SQS caps batch operations at 10 entries and long polls at 20s
	maxBatchEntries = 10
	maxWaitSeconds  = int64(20)
)

// Conf configures an SQS-backed Queue
type Conf struct {
	Region            string
	AccessKeyID       string
	SecretAccessKey   string
	QueueName         string // [REQUIRED] name of the SQS queue
	VisibilityTimeout int64  // seconds a dequeued message stays invisible. Defaults to 20.
	MaxRetries        int    // AWS client retry budget. Defaults to 5.
}

// Queue is an SQS-backed distributed queue
type Queue struct {
	svc  sqsiface.SQSAPI
	url  *string
	conf *Conf
}

// CreateQueue produces a Queue bound to the named SQS queue, building an
// AWS session from the Conf
func CreateQueue(conf *Conf) (*Queue, error) {
	if len(conf.QueueName) == 0 {
		return nil, errors.InvalidArgumentError{Name: "QueueName", Reason: "must be the name of an SQS queue"}
	}
	sess, err := buildSession(conf)
	if err != nil {
		return nil, err
	}
	svc := awssqs.New(sess)
	urlResult, err := svc.GetQueueUrl(&awssqs.GetQueueUrlInput{
		QueueName: &conf.QueueName,
	})
	if err != nil {
		return nil, err
	}
	return CreateQueueWithClient(svc, *urlResult.QueueUrl, conf), nil
}

// CreateQueueWithClient produces a Queue over an existing SQS client and
// resolved queue URL. Used with custom clients and in tests.
func CreateQueueWithClient(svc sqsiface.SQSAPI, queueURL string, conf *Conf) *Queue {
	if conf == nil {
		conf = &Conf{}
	}
	if conf.VisibilityTimeout == 0 {
		conf.VisibilityTimeout = defaultVisibilityTimeout
	}
	return &Queue{svc: svc, url: &queueURL, conf: conf}
}

func buildSession(conf *Conf) (*session.Session, error) {
	maxRetries := conf.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	awsConfig := aws.NewConfig().WithMaxRetries(maxRetries)
	if conf.Region != "" {
		awsConfig = awsConfig.WithRegion(conf.Region)
	}
	if conf.AccessKeyID != "" && conf.SecretAccessKey == "" ||
		conf.AccessKeyID == "" && conf.SecretAccessKey != "" {
		return nil, fmt.Errorf("must supply both an Access Key ID and Secret Access Key or neither")
	}
	if conf.AccessKeyID != "" && conf.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentials(conf.AccessKeyID, conf.SecretAccessKey, "")
		awsConfig = awsConfig.WithCredentials(creds)
	}
	return session.NewSession(awsConfig)
}

// Enqueue adds a single message to the queue
func (q *Queue) Enqueue(ctx context.Context, body []byte) error {
	_, err := q.svc.SendMessageWithContext(ctx, &awssqs.SendMessageInput{
		QueueUrl:    q.url,
		MessageBody: aws.String(string(body)),
	})
	return err
}

// EnqueueBatch adds multiple messages to the queue, in chunks of the SQS
// batch limit
func (q *Queue) EnqueueBatch(ctx context.Context, bodies [][]byte) error {
	for start := 0; start < len(bodies); start += maxBatchEntries {
		end := start + maxBatchEntries
		if end > len(bodies) {
			end = len(bodies)
		}
		entries := make([]*awssqs.SendMessageBatchRequestEntry, 0, end-start)
		for _, body := range bodies[start:end] {
			id, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("failed to generate batch entry ID: %v", err)
			}
			entries = append(entries, &awssqs.SendMessageBatchRequestEntry{
				Id:          aws.String(id.String()),
				MessageBody: aws.String(string(body)),
			})
		}
		result, err := q.svc.SendMessageBatchWithContext(ctx, &awssqs.SendMessageBatchInput{
			QueueUrl: q.url,
			Entries:  entries,
		})
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d messages failed to enqueue", len(result.Failed))
		}
	}
	return nil
}

// Dequeue removes a message, long-polling up to timeout for one to
// arrive. Returns nil if none arrived within the timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*flo.Message, error) {
	wait := int64(timeout / time.Second)
	if wait > maxWaitSeconds {
		wait = maxWaitSeconds
	}
	msgs, err := q.receive(ctx, 1, wait)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

// DequeueBatch removes up to max immediately available messages
func (q *Queue) DequeueBatch(ctx context.Context, max int) ([]*flo.Message, error) {
	var msgs []*flo.Message
	for len(msgs) < max {
		n := int64(max - len(msgs))
		if n > maxBatchEntries {
			n = maxBatchEntries
		}
		batch, err := q.receive(ctx, n, 0)
		if err != nil {
			return msgs, err
		}
		if len(batch) == 0 {
			break
		}
		msgs = append(msgs, batch...)
	}
	return msgs, nil
}

// TryDequeue removes an immediately available message, if any
func (q *Queue) TryDequeue(ctx context.Context) (*flo.Message, bool, error) {
	msgs, err := q.receive(ctx, 1, 0)
	if err != nil {
		return nil, false, err
	}
	if len(msgs) == 0 {
		return nil, false, nil
	}
	return msgs[0], true, nil
}

// Count returns the approximate number of visible messages
func (q *Queue) Count(ctx context.Context) (int64, error) {
	result, err := q.svc.GetQueueAttributesWithContext(ctx, &awssqs.GetQueueAttributesInput{
		QueueUrl:       q.url,
		AttributeNames: []*string{aws.String(awssqs.QueueAttributeNameApproximateNumberOfMessages)},
	})
	if err != nil {
		return 0, err
	}
	raw, ok := result.Attributes[awssqs.QueueAttributeNameApproximateNumberOfMessages]
	if !ok {
		return 0, fmt.Errorf("queue attributes did not include a message count")
	}
	return strconv.ParseInt(*raw, 10, 64)
}

func (q *Queue) receive(ctx context.Context, max int64, waitSeconds int64) ([]*flo.Message, error) {
	result, err := q.svc.ReceiveMessageWithContext(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            q.url,
		MaxNumberOfMessages: aws.Int64(max),
		WaitTimeSeconds:     aws.Int64(waitSeconds),
		VisibilityTimeout:   aws.Int64(q.conf.VisibilityTimeout),
		AttributeNames:      []*string{aws.String(awssqs.MessageSystemAttributeNameApproximateReceiveCount)},
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]*flo.Message, 0, len(result.Messages))
	for _, m := range result.Messages {
		deliveries := 1
		if raw, ok := m.Attributes[awssqs.MessageSystemAttributeNameApproximateReceiveCount]; ok {
			if n, err := strconv.Atoi(*raw); err == nil {
				deliveries = n
			}
		}
		msgs = append(msgs, &flo.Message{
			ID:            aws.StringValue(m.MessageId),
			Body:          []byte(aws.StringValue(m.Body)),
			DeliveryCount: deliveries,
			Lease:         &lease{queue: q, receipt: m.ReceiptHandle, state: int32(flo.LeaseActive)},
		})
	}
	return msgs, nil
}

// lease is a time-boxed claim on one received SQS message, keyed by its
// receipt handle
type lease struct {
	queue   *Queue
	receipt *string
	state   int32 // flo.LeaseState, accessed atomically
}

// Renew extends the message's visibility timeout
func (l *lease) Renew(ctx context.Context, extend time.Duration) error {
	if err := l.checkActive(); err != nil {
		return err
	}
	seconds := int64(extend / time.Second)
	if seconds <= 0 {
		seconds = l.queue.conf.VisibilityTimeout
	}
	_, err := l.queue.svc.ChangeMessageVisibilityWithContext(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          l.queue.url,
		ReceiptHandle:     l.receipt,
		VisibilityTimeout: aws.Int64(seconds),
	})
	return err
}

// Release deletes the message, marking it fully processed
func (l *lease) Release(ctx context.Context) error {
	if err := l.checkActive(); err != nil {
		return err
	}
	_, err := l.queue.svc.DeleteMessageWithContext(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      l.queue.url,
		ReceiptHandle: l.receipt,
	})
	if err != nil {
		return err
	}
	atomic.StoreInt32(&l.state, int32(flo.LeaseReleased))
	return nil
}

// Fault zeroes the message's visibility timeout, handing it straight back
// to the queue's retry/dead-letter policy
func (l *lease) Fault(ctx context.Context) error {
	if err := l.checkActive(); err != nil {
		return err
	}
	_, err := l.queue.svc.ChangeMessageVisibilityWithContext(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          l.queue.url,
		ReceiptHandle:     l.receipt,
		VisibilityTimeout: aws.Int64(0),
	})
	if err != nil {
		return err
	}
	atomic.StoreInt32(&l.state, int32(flo.LeaseFaulted))
	return nil
}

// State reports the lease's current lifecycle position. Expiry is tracked
// by SQS itself and surfaces as failed Renew/Release calls rather than a
// state transition here.
func (l *lease) State() flo.LeaseState {
	return flo.LeaseState(atomic.LoadInt32(&l.state))
}

func (l *lease) checkActive() error {
	if flo.LeaseState(atomic.LoadInt32(&l.state)) != flo.LeaseActive {
		return errors.LeaseSettledError{}
	}
	return nil
}
