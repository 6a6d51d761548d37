package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/scrub/models"
)

type fakeCloudWatch struct {
	cloudwatchiface.CloudWatchAPI
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricDataWithContext(ctx aws.Context, input *cloudwatch.PutMetricDataInput, opts ...request.Option) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, input)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestPutSample(t *testing.T) {
	cw := &fakeCloudWatch{}
	s := &CloudWatchSampler{Namespace: "Scrub", Unit: "Count", Service: cw}

	err := s.PutSample(context.Background(), "ClaimsFailed", 3, []Dimension{{Name: "Environment", Value: "test"}})
	require.NoError(t, err)
	require.Len(t, cw.inputs, 1)

	input := cw.inputs[0]
	assert.Equal(t, "Scrub", aws.StringValue(input.Namespace))
	datum := input.MetricData[0]
	assert.Equal(t, "ClaimsFailed", aws.StringValue(datum.MetricName))
	assert.Equal(t, "Count", aws.StringValue(datum.Unit))
	assert.Equal(t, float64(3), aws.Float64Value(datum.Value))
	assert.Equal(t, "Environment", aws.StringValue(datum.Dimensions[0].Name))
	assert.Equal(t, "test", aws.StringValue(datum.Dimensions[0].Value))
}

func TestRecordBatch(t *testing.T) {
	cw := &fakeCloudWatch{}
	s := &CloudWatchSampler{Namespace: "Scrub", Unit: "Count", Service: cw}

	summary := models.Summary{Total: 4, Passed: 2, Warnings: 1, Failed: 1, AverageScore: 86.75}
	require.NoError(t, RecordBatch(context.Background(), s, summary, nil))
	require.Len(t, cw.inputs, 5)

	values := map[string]float64{}
	for _, in := range cw.inputs {
		values[aws.StringValue(in.MetricData[0].MetricName)] = aws.Float64Value(in.MetricData[0].Value)
	}
	assert.Equal(t, map[string]float64{
		"ClaimsValidated":    4,
		"ClaimsPassed":       2,
		"ClaimsWithWarnings": 1,
		"ClaimsFailed":       1,
		"AverageScore":       86.75,
	}, values)
}

func TestRecordBatchStopsOnError(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("throttled")}
	s := &CloudWatchSampler{Namespace: "Scrub", Unit: "Count", Service: cw}

	assert.EqualError(t, RecordBatch(context.Background(), s, models.Summary{}, nil), "throttled")
	assert.Len(t, cw.inputs, 1)
}

func TestNoopTimer(t *testing.T) {
	type ctxKey string
	parent := context.WithValue(context.Background(), ctxKey("k"), "v")

	ctx, closeParent := NewParent(parent, "parent")
	assert.Equal(t, "v", ctx.Value(ctxKey("k")))
	closeChild := NewChild(ctx, "child")
	closeChild()
	closeParent()

	assert.Equal(t, ctx, ForGoroutine(ctx))
}

func TestGetTimerWithoutLicense(t *testing.T) {
	old := conf.GetEnv("NEW_RELIC_LICENSE_KEY")
	assert.NoError(t, conf.SetEnv(t, "NEW_RELIC_LICENSE_KEY", ""))
	t.Cleanup(func() { assert.NoError(t, conf.SetEnv(t, "NEW_RELIC_LICENSE_KEY", old)) })

	timer := GetTimer()
	assert.IsType(t, &noopTimer{}, timer)
	timer.Close()

	ctx := NewContext(context.Background(), timer)
	assert.Equal(t, timer, fromContext(ctx))
}
