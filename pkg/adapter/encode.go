package adapter

import (
	"encoding/json"
	"io"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
)

// Format is the dataset serialization format for hub uploads
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

var ErrInvalidFormat = goerr.New("invalid dataset format")

// Validate checks if the format is supported
func (f Format) Validate() error {
	switch f {
	case FormatJSONL, FormatParquet:
		return nil
	default:
		return goerr.Wrap(ErrInvalidFormat, "validate", goerr.Value("format", f))
	}
}

// Encode serializes items into w using the format
func (f Format) Encode(w io.Writer, items []*model.Item) error {
	switch f {
	case FormatJSONL:
		return encodeJSONL(w, items)
	case FormatParquet:
		return encodeParquet(w, items)
	default:
		return goerr.Wrap(ErrInvalidFormat, "encode", goerr.Value("format", f))
	}
}

func encodeJSONL(w io.Writer, items []*model.Item) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return goerr.Wrap(err, "failed to encode item", goerr.Value("item_id", item.ID))
		}
	}
	return nil
}

var parquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "query", Type: arrow.BinaryTypes.String},
	{Name: "reasoning", Type: arrow.BinaryTypes.String},
	{Name: "answer", Type: arrow.BinaryTypes.String},
	{Name: "messages", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "status", Type: arrow.BinaryTypes.String},
	{Name: "total_tokens", Type: arrow.PrimitiveTypes.Int64},
	{Name: "cost", Type: arrow.PrimitiveTypes.Float64},
}, nil)

func encodeParquet(w io.Writer, items []*model.Item) error {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, parquetSchema)
	defer builder.Release()

	for _, item := range items {
		messages := ""
		if item.IsMultiTurn() {
			raw, err := json.Marshal(item.Messages)
			if err != nil {
				return goerr.Wrap(err, "failed to marshal messages", goerr.Value("item_id", item.ID))
			}
			messages = string(raw)
		}

		builder.Field(0).(*array.StringBuilder).Append(string(item.ID))
		builder.Field(1).(*array.StringBuilder).Append(item.Query)
		builder.Field(2).(*array.StringBuilder).Append(item.Reasoning)
		builder.Field(3).(*array.StringBuilder).Append(item.Answer)
		builder.Field(4).(*array.StringBuilder).Append(messages)
		builder.Field(5).(*array.Float64Builder).Append(item.Score)
		builder.Field(6).(*array.StringBuilder).Append(string(item.Status))
		builder.Field(7).(*array.Int64Builder).Append(int64(item.Tokens()))
		builder.Field(8).(*array.Float64Builder).Append(item.TotalCost())
	}

	rec := builder.NewRecord()
	defer rec.Release()

	writer, err := pqarrow.NewFileWriter(
		parquetSchema,
		w,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create parquet writer")
	}

	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write parquet record")
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize parquet file")
	}

	return nil
}
