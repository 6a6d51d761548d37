package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"

	"github.com/CMSgov/scrub-app/scrub/models"
)

type Dimension struct {
	Name  string
	Value string
}

// Sampler publishes single metric samples.
type Sampler interface {
	PutSample(ctx context.Context, name string, value float64, dimensions []Dimension) error
}

type CloudWatchSampler struct {
	Namespace string
	Unit      string
	Service   cloudwatchiface.CloudWatchAPI
}

func (s *CloudWatchSampler) PutSample(ctx context.Context, name string, value float64, dimensions []Dimension) error {
	var d []*cloudwatch.Dimension
	for _, v := range dimensions {
		d = append(d, &cloudwatch.Dimension{
			Name:  aws.String(v.Name),
			Value: aws.String(v.Value),
		})
	}

	input := &cloudwatch.PutMetricDataInput{
		MetricData: []*cloudwatch.MetricDatum{{
			Dimensions: d,
			MetricName: aws.String(name),
			Unit:       aws.String(s.Unit),
			Value:      aws.Float64(value),
		}},
		Namespace: aws.String(s.Namespace),
	}
	_, err := s.Service.PutMetricDataWithContext(ctx, input)
	return err
}

func NewSampler(ns, unit string) (*CloudWatchSampler, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String("us-east-1"),
	})
	if err != nil {
		return nil, err
	}
	return &CloudWatchSampler{ns, unit, cloudwatch.New(sess)}, nil
}

// RecordBatch publishes the outcome counts of a validated batch.
func RecordBatch(ctx context.Context, s Sampler, summary models.Summary, dimensions []Dimension) error {
	samples := []struct {
		name  string
		value float64
	}{
		{"ClaimsValidated", float64(summary.Total)},
		{"ClaimsPassed", float64(summary.Passed)},
		{"ClaimsWithWarnings", float64(summary.Warnings)},
		{"ClaimsFailed", float64(summary.Failed)},
		{"AverageScore", summary.AverageScore},
	}
	for _, sample := range samples {
		if err := s.PutSample(ctx, sample.name, sample.value, dimensions); err != nil {
			return err
		}
	}
	return nil
}
