package tools

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sync"

	"sales-dashboard/chart"
)

const PlotMIME = "image/png"

// PlotResult is what the plot tool hands back to the chat engine.
type PlotResult struct {
	Kind  string `json:"type"`
	Image string `json:"image"`
	MIME  string `json:"mime"`
}

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// RenderPlot draws spec and returns it base64-encoded. The rendering buffer is
// returned to the pool whatever the outcome.
func RenderPlot(spec chart.Spec) (PlotResult, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	enc := base64.NewEncoder(base64.StdEncoding, buf)
	if err := chart.WritePNG(enc, spec, chart.DefaultWidth, chart.DefaultHeight); err != nil {
		return PlotResult{}, fmt.Errorf("render plot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return PlotResult{}, fmt.Errorf("encode plot: %w", err)
	}
	return PlotResult{Kind: "plot", Image: buf.String(), MIME: PlotMIME}, nil
}
