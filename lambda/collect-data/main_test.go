package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/giltmonitor/internal/collect"
)

func TestNewCollector(t *testing.T) {
	c, err := newCollector("")
	require.NoError(t, err)
	assert.Equal(t, collect.SourceGiltsyield, c.Source())

	c, err = newCollector("dmo")
	require.NoError(t, err)
	assert.Equal(t, collect.SourceDMO, c.Source())

	_, err = newCollector("bloomberg")
	assert.Error(t, err)
}

func TestHandlerReportsFailure(t *testing.T) {
	t.Setenv(ENV_BUCKET_NAME, "")

	resp, err := handler(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{{MessageId: "msg-1"}, {MessageId: "msg-2"}},
	})
	assert.Error(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "msg-1", resp.BatchItemFailures[0].ItemIdentifier)
}
