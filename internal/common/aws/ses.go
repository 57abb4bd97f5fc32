package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESClient struct {
	client *ses.Client
}

func NewSESClient(cfg awssdk.Config) *SESClient {
	return &SESClient{client: ses.NewFromConfig(cfg)}
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input, optFns...)
}

// NewEmailInput builds a single-recipient email with identical text and HTML bodies.
func NewEmailInput(from, to, subject, textBody, htmlBody string) *ses.SendEmailInput {
	body := &types.Body{Text: &types.Content{Data: awssdk.String(textBody)}}
	if htmlBody != "" {
		body.Html = &types.Content{Data: awssdk.String(htmlBody)}
	}
	return &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject)},
			Body:    body,
		},
		Source: awssdk.String(from),
	}
}
