package analytics

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

// Publisher posts normalized samples to the events publish endpoint.
type Publisher struct {
	client *Client
}

// NewPublisher returns a publisher using c.
func NewPublisher(c *Client) *Publisher {
	return &Publisher{client: c}
}

// Publish sends all samples as one JSON array in a single request.
// The batch is accepted or rejected as a whole; nothing is retried or split.
func (p *Publisher) Publish(ctx context.Context, schemaName string, samples []model.NormalizedSample) error {
	log := p.client.logger.With(zap.String("schema", schemaName), zap.Int("samples", len(samples)))
	log.Info("publishing events")

	if samples == nil {
		samples = []model.NormalizedSample{}
	}
	resp, err := p.client.do(ctx, http.MethodPost, p.client.endpoint("publish", schemaName), samples)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		log.Info("events published")
		return nil
	case http.StatusRequestEntityTooLarge:
		return &Error{Kind: ErrPayloadTooLarge, Schema: schemaName, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	default:
		return remoteError(ErrPublish, schemaName, resp)
	}
}
