package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg, err := LoadConfig(context.Background(), "af-south-1")
	require.NoError(t, err)
	assert.Equal(t, "af-south-1", cfg.Region)

	_, err = LoadConfig(context.Background(), "")
	assert.Error(t, err)
}

func TestNewClients(t *testing.T) {
	cfg := awssdk.Config{Region: "af-south-1"}
	assert.NotNil(t, NewSESClient(cfg))
	assert.NotNil(t, NewSNSClient(cfg))
}

func TestNewEmailInput(t *testing.T) {
	input := NewEmailInput("matches@fundingportal.co.za", "owner@acme.co.za", "Your matches", "plain", "<p>html</p>")

	assert.Equal(t, []string{"owner@acme.co.za"}, input.Destination.ToAddresses)
	assert.Equal(t, "matches@fundingportal.co.za", awssdk.ToString(input.Source))
	assert.Equal(t, "Your matches", awssdk.ToString(input.Message.Subject.Data))
	assert.Equal(t, "plain", awssdk.ToString(input.Message.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", awssdk.ToString(input.Message.Body.Html.Data))

	textOnly := NewEmailInput("a@b.co", "c@d.co", "s", "plain", "")
	assert.Nil(t, textOnly.Message.Body.Html)
}

func TestNewSMSInput(t *testing.T) {
	input := NewSMSInput("+27825551234", "3 programs match", "FUNDMATCH")

	assert.Equal(t, "+27825551234", awssdk.ToString(input.PhoneNumber))
	assert.Equal(t, "Transactional", awssdk.ToString(input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "FUNDMATCH", awssdk.ToString(input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	noSender := NewSMSInput("+27825551234", "hi", "")
	_, ok := noSender.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, ok)
}
