package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// NewSNSClient returns an SNS client for SMS, or nil when SMS is disabled.
func NewSNSClient(cfg aws.Config, enabled bool) *sns.Client {
	if !enabled {
		return nil
	}
	return sns.NewFromConfig(cfg)
}
