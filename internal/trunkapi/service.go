package trunkapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/arancormonk/dsd-neo-go/internal/trunk"
)

// SnapshotRequest is the GetSnapshot RPC's (empty) request message.
type SnapshotRequest struct{}

// SnapshotResponse mirrors trunk.Snapshot for wire transport.
type SnapshotResponse struct {
	CCFreq         uint64   `json:"cc_freq"`
	VCFreq         [2]uint64 `json:"vc_freq"`
	IsTuned        bool     `json:"is_tuned"`
	AudioAllowed   [2]bool  `json:"audio_allowed"`
	AudioRingCount [2]int   `json:"audio_ring_count"`
	SMReleaseCount uint64   `json:"sm_release_count"`
	SMTuneCount    uint64   `json:"sm_tune_count"`
	SMState        string   `json:"sm_state"`
}

func toResponse(s trunk.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		CCFreq:         s.CCFreq,
		VCFreq:         s.VCFreq,
		IsTuned:        s.IsTuned,
		AudioAllowed:   s.AudioAllowed,
		AudioRingCount: s.AudioRingCount,
		SMReleaseCount: s.SMReleaseCount,
		SMTuneCount:    s.SMTuneCount,
		SMState:        s.SMState.String(),
	}
}

// TuneOverrideRequest asks the trunking SM to force a tune to a
// specific frequency, bypassing normal grant resolution — an
// operator-initiated external tuning override.
type TuneOverrideRequest struct {
	FreqHz uint64 `json:"freq_hz"`
}

// TuneOverrideResponse acknowledges a tuning override request.
type TuneOverrideResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Server is the application-level implementation the gRPC handlers
// delegate to.
type Server interface {
	GetSnapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error)
	TuneOverride(ctx context.Context, req *TuneOverrideRequest) (*TuneOverrideResponse, error)
}

// StateServer adapts a *trunk.State to the Server interface.
type StateServer struct {
	State *trunk.State
}

// GetSnapshot returns the current trunking SM snapshot.
func (s *StateServer) GetSnapshot(_ context.Context, _ *SnapshotRequest) (*SnapshotResponse, error) {
	resp := toResponse(s.State.Snapshot())
	return &resp, nil
}

// TuneOverride forces an immediate tune to the given frequency via the
// trunk tuning hook, bypassing normal grant resolution — an
// operator-initiated override rather than a decoded grant.
func (s *StateServer) TuneOverride(_ context.Context, req *TuneOverrideRequest) (*TuneOverrideResponse, error) {
	if req.FreqHz == 0 {
		return &TuneOverrideResponse{Accepted: false, Reason: "freq_hz must be non-zero"}, nil
	}
	if err := s.State.Hooks.TuneToFreq(req.FreqHz); err != nil {
		return &TuneOverrideResponse{Accepted: false, Reason: err.Error()}, nil
	}
	return &TuneOverrideResponse{Accepted: true}, nil
}

// ServiceDesc is the hand-authored gRPC service description (in place
// of a protoc-generated one; see codec.go's package comment) binding
// the two RPCs above to the json codec's request/response types.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dsdneo.trunkapi.TrunkAPI",
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSnapshot",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(SnapshotRequest)
				if err := dec(req); err != nil {
					return nil, fmt.Errorf("trunkapi: decode GetSnapshot request: %w", err)
				}
				if interceptor == nil {
					return srv.(Server).GetSnapshot(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dsdneo.trunkapi.TrunkAPI/GetSnapshot"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).GetSnapshot(ctx, req.(*SnapshotRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "TuneOverride",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(TuneOverrideRequest)
				if err := dec(req); err != nil {
					return nil, fmt.Errorf("trunkapi: decode TuneOverride request: %w", err)
				}
				if interceptor == nil {
					return srv.(Server).TuneOverride(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dsdneo.trunkapi.TrunkAPI/TuneOverride"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).TuneOverride(ctx, req.(*TuneOverrideRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Metadata: "trunkapi.proto",
}

// RegisterServer registers impl with s using ServiceDesc. It leaves the
// server's default codec in place; clients send these messages as JSON
// by selecting the "json" content subtype that codec.go registers.
func RegisterServer(s *grpc.Server, impl Server) {
	s.RegisterService(&ServiceDesc, impl)
}
