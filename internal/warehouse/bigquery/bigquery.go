// Package bigquery loads flattened batches into BigQuery tables.
package bigquery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/warehouse"
)

// DefaultLocation is used when a dataset has to be created without an explicit location.
const DefaultLocation = "US"

// Settings identifies the target dataset.
type Settings struct {
	ProjectID string
	Dataset   string
	Location  string
}

// api is the slice of the BigQuery client the loader needs.
type api interface {
	datasetExists(ctx context.Context) (bool, error)
	createDataset(ctx context.Context, location string) error
	tableExists(ctx context.Context, table string) (bool, error)
	createTable(ctx context.Context, table string, schema bq.Schema) error
	load(ctx context.Context, table string, r io.Reader) error
	close() error
}

// Loader is a warehouse.Sink backed by BigQuery load jobs.
type Loader struct {
	api      api
	location string
	opts     warehouse.Options
	log      *slog.Logger
}

var _ warehouse.Sink = (*Loader)(nil)

// New opens a BigQuery client for the settings' project.
func New(ctx context.Context, settings Settings, opts warehouse.Options, logger *slog.Logger) (*Loader, error) {
	client, err := bq.NewClient(ctx, settings.ProjectID)
	if err != nil {
		return nil, warehouse.Fail("create bigquery client", err)
	}
	return newLoader(&clientAPI{client: client, dataset: settings.Dataset}, settings.Location, opts, logger), nil
}

func newLoader(a api, location string, opts warehouse.Options, logger *slog.Logger) *Loader {
	if location == "" {
		location = DefaultLocation
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{api: a, location: location, opts: opts, log: logger}
}

// Close releases the client.
func (l *Loader) Close() error {
	return l.api.close()
}

// Load ensures the dataset and tables exist, then appends every non-empty part.
func (l *Loader) Load(ctx context.Context, batch model.Batch) error {
	if err := l.ensureDataset(ctx); err != nil {
		return err
	}
	parts := warehouse.Parts(batch, l.opts)
	for _, part := range parts {
		if err := l.ensureTable(ctx, part.Table); err != nil {
			return err
		}
	}
	for _, part := range parts {
		if part.Len == 0 {
			l.log.Debug("skipping empty table", "table", part.Table.Name)
			continue
		}
		var buf bytes.Buffer
		if err := part.EncodeNDJSON(&buf); err != nil {
			return warehouse.Fail("encode "+part.Table.Name, err)
		}
		if err := l.api.load(ctx, part.Table.Name, &buf); err != nil {
			return warehouse.Fail("load "+part.Table.Name, err)
		}
		l.log.Info("loaded rows", "table", part.Table.Name, "rows", part.Len)
	}
	return nil
}

func (l *Loader) ensureDataset(ctx context.Context) error {
	exists, err := l.api.datasetExists(ctx)
	if err != nil {
		return warehouse.Fail("look up dataset", err)
	}
	if exists {
		return nil
	}
	l.log.Info("creating dataset", "location", l.location)
	if err := l.api.createDataset(ctx, l.location); err != nil && !hasStatus(err, http.StatusConflict) {
		return warehouse.Fail("create dataset", err)
	}
	return nil
}

func (l *Loader) ensureTable(ctx context.Context, table warehouse.Table) error {
	exists, err := l.api.tableExists(ctx, table.Name)
	if err != nil {
		return warehouse.Fail("look up table "+table.Name, err)
	}
	if exists {
		return nil
	}
	l.log.Info("creating table", "table", table.Name)
	if err := l.api.createTable(ctx, table.Name, Schema(table)); err != nil && !hasStatus(err, http.StatusConflict) {
		return warehouse.Fail("create table "+table.Name, err)
	}
	return nil
}

// Schema maps a table layout to a BigQuery schema. Every column is created
// NULLABLE so appends keep working against tables made by earlier exporters.
func Schema(table warehouse.Table) bq.Schema {
	schema := make(bq.Schema, 0, len(table.Columns))
	for _, c := range table.Columns {
		schema = append(schema, &bq.FieldSchema{
			Name: c.Name,
			Type: fieldType(c.Type),
		})
	}
	return schema
}

func fieldType(t warehouse.ColumnType) bq.FieldType {
	switch t {
	case warehouse.Date:
		return bq.DateFieldType
	case warehouse.Boolean:
		return bq.BooleanFieldType
	case warehouse.Integer:
		return bq.IntegerFieldType
	default:
		return bq.StringFieldType
	}
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type clientAPI struct {
	client  *bq.Client
	dataset string
}

func (c *clientAPI) datasetExists(ctx context.Context) (bool, error) {
	_, err := c.client.Dataset(c.dataset).Metadata(ctx)
	return exists(err)
}

func (c *clientAPI) createDataset(ctx context.Context, location string) error {
	return c.client.Dataset(c.dataset).Create(ctx, &bq.DatasetMetadata{Location: location})
}

func (c *clientAPI) tableExists(ctx context.Context, table string) (bool, error) {
	_, err := c.client.Dataset(c.dataset).Table(table).Metadata(ctx)
	return exists(err)
}

func (c *clientAPI) createTable(ctx context.Context, table string, schema bq.Schema) error {
	return c.client.Dataset(c.dataset).Table(table).Create(ctx, &bq.TableMetadata{Schema: schema})
}

func (c *clientAPI) load(ctx context.Context, table string, r io.Reader) error {
	src := bq.NewReaderSource(r)
	src.SourceFormat = bq.JSON
	loader := c.client.Dataset(c.dataset).Table(table).LoaderFrom(src)
	loader.WriteDisposition = bq.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for load job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("load job %s failed: %w", job.ID(), err)
	}
	return nil
}

func (c *clientAPI) close() error {
	return c.client.Close()
}

func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if hasStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return false, err
}
