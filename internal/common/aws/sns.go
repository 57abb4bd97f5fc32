package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(cfg awssdk.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}

// NewSMSInput builds a transactional SMS publish request. senderID is optional.
func NewSMSInput(phone, message, senderID string) *sns.PublishInput {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String("Transactional"),
		},
	}
	if senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(senderID),
		}
	}
	return &sns.PublishInput{
		PhoneNumber:       awssdk.String(phone),
		Message:           awssdk.String(message),
		MessageAttributes: attrs,
	}
}
