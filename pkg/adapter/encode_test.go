package adapter_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/model"
)

func sampleItems() []*model.Item {
	return []*model.Item{
		{ID: "a", Query: "q1", Answer: "a1", Score: 0.9, Status: model.ItemStatusCompleted},
		{ID: "b", Messages: []model.Message{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
		}, Score: 0.5},
	}
}

func TestFormatValidate(t *testing.T) {
	gt.NoError(t, adapter.FormatJSONL.Validate())
	gt.NoError(t, adapter.FormatParquet.Validate())
	gt.Error(t, adapter.Format("csv").Validate())
	gt.Error(t, adapter.Format("").Validate())
}

func TestEncodeJSONL(t *testing.T) {
	buf := &bytes.Buffer{}
	gt.NoError(t, adapter.FormatJSONL.Encode(buf, sampleItems()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	gt.A(t, lines).Length(2)

	var first map[string]any
	gt.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	gt.Equal(t, first["id"], "a")
	gt.Equal(t, first["query"], "q1")

	var second map[string]any
	gt.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	gt.V(t, second["messages"]).NotNil()
}

func TestEncodeParquet(t *testing.T) {
	buf := &bytes.Buffer{}
	gt.NoError(t, adapter.FormatParquet.Encode(buf, sampleItems()))

	// PAR1 magic bytes at both ends of the file
	raw := buf.Bytes()
	gt.Number(t, len(raw)).GreaterOrEqual(8)
	gt.Equal(t, string(raw[:4]), "PAR1")
	gt.Equal(t, string(raw[len(raw)-4:]), "PAR1")
}

func TestEncodeParquetEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	gt.NoError(t, adapter.FormatParquet.Encode(buf, nil))
	gt.Number(t, buf.Len()).GreaterOrEqual(8)
}
