// Package models defines the JSON documents exchanged by the HTTP API and
// written by the benchmark's JSON output.
package models

// TransformRequest is the body of POST /transform.
type TransformRequest struct {
	// Direction is "forward" (default) or "inverse".
	Direction string `json:"direction"`
	// Order is one of NN, NR, RN, RR (default NN).
	Order string `json:"order,omitempty"`
	// Device is the device index (default 0).
	Device int `json:"device"`
	// Values are canonical field elements; the length must be a power of two.
	Values []uint64 `json:"values"`
}

// TransformResponse is the result of a transform request.
type TransformResponse struct {
	// Field names the field the server is configured for.
	Field string `json:"field"`
	// N is the transform length.
	N int `json:"n"`
	// Values is the transformed vector, omitted on error.
	Values []uint64 `json:"values,omitempty"`
	// Digest is the blake3 hex digest of Values.
	Digest string `json:"digest,omitempty"`
	// Duration is the formatted execution time.
	Duration string `json:"duration"`
	// Error contains the error message if the transform failed.
	Error string `json:"error,omitempty"`
}

// DeviceInfo describes one device in GET /devices.
type DeviceInfo struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Vendor      string   `json:"vendor"`
	Kind        string   `json:"kind"`
	Workers     int      `json:"workers"`
	MemoryBytes int64    `json:"memory_bytes"`
	Features    []string `json:"features,omitempty"`
}

// DevicesResponse is the body of GET /devices.
type DevicesResponse struct {
	Field   string       `json:"field"`
	Devices []DeviceInfo `json:"devices"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}

// BenchmarkRecord is one benchmark case in the JSON report.
type BenchmarkRecord struct {
	Case       string  `json:"case"`
	LogN       int     `json:"log_n"`
	Device     int     `json:"device"`
	Direction  string  `json:"direction"`
	Order      string  `json:"order"`
	Samples    int     `json:"samples"`
	MeanNs     float64 `json:"mean_ns"`
	MedianNs   float64 `json:"median_ns"`
	StdDevNs   float64 `json:"stddev_ns"`
	P95Ns      float64 `json:"p95_ns"`
	MinNs      float64 `json:"min_ns"`
	Throughput float64 `json:"elements_per_second"`
	Digest     string  `json:"digest,omitempty"`
	Verified   bool    `json:"verified"`
	Error      string  `json:"error,omitempty"`
}

// BenchmarkReport is the document written by -json.
type BenchmarkReport struct {
	Field   string            `json:"field"`
	Seed    string            `json:"seed"`
	Devices []DeviceInfo      `json:"devices"`
	Results []BenchmarkRecord `json:"results"`
}
