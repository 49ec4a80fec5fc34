package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishJSON(context.Background(), BookingCreated, nil))
	assert.NoError(t, p.Close())
}
