package analytics

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

// SchemaRegistrar makes sure the target schema exists before events are published.
type SchemaRegistrar struct {
	client *Client
}

// NewSchemaRegistrar returns a registrar using c.
func NewSchemaRegistrar(c *Client) *SchemaRegistrar {
	return &SchemaRegistrar{client: c}
}

// Exists reports whether the schema is registered: 200 means yes, 404 means no.
func (r *SchemaRegistrar) Exists(ctx context.Context, name string) (bool, error) {
	log := r.client.logger.With(zap.String("schema", name))
	log.Debug("checking schema")

	resp, err := r.client.do(ctx, http.MethodGet, r.client.endpoint("schema", name), nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		log.Info("schema found")
		return true, nil
	case http.StatusNotFound:
		log.Info("schema not found")
		return false, nil
	default:
		return false, remoteError(ErrSchemaCheck, name, resp)
	}
}

// Create registers the schema, wrapping fields under the "schema" key. Only 201 is success.
func (r *SchemaRegistrar) Create(ctx context.Context, name string, fields map[string]string) error {
	log := r.client.logger.With(zap.String("schema", name))
	log.Info("creating schema", zap.Int("fields", len(fields)))

	body := map[string]map[string]string{"schema": fields}
	resp, err := r.client.do(ctx, http.MethodPost, r.client.endpoint("schema", name), body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return remoteError(ErrSchemaCreate, name, resp)
	}
	log.Info("schema created")
	return nil
}

// EnsureSchema creates the schema only when it is not registered yet.
// Two processes racing here may both attempt the create; the loser gets ErrSchemaCreate.
func (r *SchemaRegistrar) EnsureSchema(ctx context.Context, desc model.SchemaDescriptor) error {
	ok, err := r.Exists(ctx, desc.Name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return r.Create(ctx, desc.Name, desc.Fields)
}
