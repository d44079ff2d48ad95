package warehouse

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"google.golang.org/api/iterator"
)

const (
	DefaultCallTable       = "prefect-data-warehouse.salesforce_ft.gong_gong_call_c"
	DefaultTranscriptTable = "prefect-data-warehouse.gongio_ft.transcript"

	accountExecutiveTitle = "%Account Executive%"
)

// BigQuery reads external calls with an Account Executive participant,
// joined with their transcripts aggregated in sentence order.
type BigQuery struct {
	client          *bigquery.Client
	callTable       string
	transcriptTable string
	keys            []string
}

var _ interfaces.RowSource = &BigQuery{}

type BigQueryOption func(*BigQuery)

func WithCallTable(table string) BigQueryOption {
	return func(b *BigQuery) {
		b.callTable = table
	}
}

func WithTranscriptTable(table string) BigQueryOption {
	return func(b *BigQuery) {
		b.transcriptTable = table
	}
}

// WithAttributeKeys sets the call columns selected besides the transcript
func WithAttributeKeys(keys []string) BigQueryOption {
	return func(b *BigQuery) {
		b.keys = keys
	}
}

func NewBigQuery(ctx context.Context, projectID string, opts ...BigQueryOption) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery client", goerr.V("projectID", projectID))
	}

	b := &BigQuery{
		client:          client,
		callTable:       DefaultCallTable,
		transcriptTable: DefaultTranscriptTable,
		keys:            model.DefaultAttributeKeys(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *BigQuery) FetchCalls(ctx context.Context, limit int) ([]*model.CallRow, error) {
	if limit <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "limit must be positive", goerr.V("limit", limit))
	}

	q := b.client.Query(BuildCallQuery(b.callTable, b.transcriptTable, b.keys))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "title", Value: accountExecutiveTitle},
		{Name: "limit", Value: limit},
	}

	logging.From(ctx).Info("querying warehouse calls", "limit", limit, "table", b.callTable)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run warehouse query", goerr.V("table", b.callTable))
	}

	var rows []*model.CallRow
	for {
		var values map[string]bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read warehouse row", goerr.V("read", len(rows)))
		}

		fields := make(map[string]any, len(values))
		for k, v := range values {
			fields[k] = v
		}
		rows = append(rows, model.NewCallRow(fields))
	}

	return rows, nil
}

func (b *BigQuery) Close() error {
	return b.client.Close()
}

// BuildCallQuery renders the warehouse statement. It expects the @title and
// @limit query parameters.
func BuildCallQuery(callTable, transcriptTable string, keys []string) string {
	columns := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		if k == model.AttrSalesforceRecordID {
			columns = append(columns, "sf.id AS "+model.AttrSalesforceRecordID)
			continue
		}
		columns = append(columns, "sf."+k)
	}
	columns = append(columns, "ct."+model.AttrCombinedTranscript)

	aeFilter := `sf.gong_scope_c = 'External'
  AND EXISTS (
    SELECT 1
    FROM UNNEST(JSON_EXTRACT_ARRAY(sf.gong_related_participants_json_c)) AS participant
    WHERE JSON_EXTRACT_SCALAR(participant, '$.Gong__Gong_Participant_Title__c') LIKE @title
  )`

	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH calls_of_interest AS (\n  SELECT sf.gong_call_id_c AS call_id\n  FROM `%s` AS sf\n  WHERE %s\n),\n", callTable, aeFilter)
	fmt.Fprintf(&sb, "combined_transcripts AS (\n  SELECT t.call_id,\n    TO_JSON_STRING(ARRAY_CONCAT_AGG(JSON_EXTRACT_ARRAY(t.sentence) ORDER BY CAST(t.index AS INT64))) AS %s\n", model.AttrCombinedTranscript)
	fmt.Fprintf(&sb, "  FROM `%s` AS t\n  INNER JOIN calls_of_interest AS coi ON t.call_id = coi.call_id\n  GROUP BY t.call_id\n)\n", transcriptTable)
	fmt.Fprintf(&sb, "SELECT\n  %s\n", strings.Join(columns, ",\n  "))
	fmt.Fprintf(&sb, "FROM `%s` AS sf\nLEFT JOIN combined_transcripts AS ct ON sf.gong_call_id_c = ct.call_id\n", callTable)
	fmt.Fprintf(&sb, "WHERE %s\nORDER BY sf.gong_call_start_c DESC\nLIMIT @limit", aeFilter)

	return sb.String()
}
