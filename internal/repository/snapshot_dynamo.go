package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const dynamoSnapshotID = "cache-snapshot"

type snapshotItem struct {
	ID        string `dynamodbav:"id"`
	Payload   []byte `dynamodbav:"payload"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

// DynamoSnapshotStore keeps the snapshot as a single DynamoDB item keyed by
// "id". Suitable for the lambda entrypoint where no local disk survives.
type DynamoSnapshotStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoSnapshotStore(ctx context.Context, region, table string) (*DynamoSnapshotStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoSnapshotStore{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

func (s *DynamoSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]dynamotypes.AttributeValue{
			"id": &dynamotypes.AttributeValueMemberS{Value: dynamoSnapshotID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot item: %w", err)
	}
	return item.Payload, nil
}

func (s *DynamoSnapshotStore) Save(ctx context.Context, data []byte) error {
	item, err := attributevalue.MarshalMap(snapshotItem{
		ID:        dynamoSnapshotID,
		Payload:   data,
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

func (s *DynamoSnapshotStore) Close() error { return nil }
