package weather

import (
	"bytes"
	"context"
	"encoding/json"
)

// NoDataMessage is how an unavailable report appears in JSON.
const NoDataMessage = "No Data Found"

type Summary struct {
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
}

// Report is either a Summary or NoData.
type Report struct {
	Summary *Summary
}

var NoData = Report{}

func Available(s Summary) Report {
	return Report{Summary: &s}
}

func (r Report) IsAvailable() bool {
	return r.Summary != nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	if r.Summary == nil {
		return json.Marshal(NoDataMessage)
	}
	return json.Marshal(r.Summary)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if (len(data) > 0 && data[0] == '"') || bytes.Equal(data, []byte("null")) {
		r.Summary = nil
		return nil
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.Summary = &s
	return nil
}

// Lookuper resolves the current weather at a location. Implementations never
// fail; problems are reported as NoData.
type Lookuper interface {
	Lookup(ctx context.Context, location string) Report
}
