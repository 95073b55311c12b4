// Package trunkapi exposes the trunking state machine's snapshots and
// tuning-override surface as a gRPC service, the "trunk tuning" hook
// domain's network transport. Rather than hand-authoring
// protoc-generated .pb.go stubs (which this project cannot verify
// without running protoc), it registers a JSON codec with grpc-go's
// pluggable-codec extension point — a supported, non-protobuf way to
// carry typed messages over the same gRPC server/stream machinery.
package trunkapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec by marshaling messages as JSON
// instead of protobuf wire format.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("trunkapi: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("trunkapi: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
