// Package rpc is the peer transport for the Raft replicator: a
// hand-rolled gRPC service (no .proto toolchain available here) that
// moves the hashicorp/raft library's own request/response structs over
// the wire via the gob codec in codec.go, rather than reimplementing
// AppendEntries/RequestVote/InstallSnapshot's wire format from scratch.
package rpc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/raft"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName           = "escanor.raft.Raft"
	methodAppendEntries   = "/" + serviceName + "/AppendEntries"
	methodRequestVote     = "/" + serviceName + "/RequestVote"
	methodInstallSnapshot = "/" + serviceName + "/InstallSnapshot"
)

// installSnapshotEnvelope bundles the InstallSnapshot RPC's structured
// request with the snapshot byte stream. The real transport streams
// the data incrementally; this implementation reads it into memory
// first and ships it as one message — snapshots in this system are the
// whole key space, not a multi-gigabyte dataset, so the simplification
// is acceptable (see DESIGN.md).
type installSnapshotEnvelope struct {
	Req  raft.InstallSnapshotRequest
	Data []byte
}

// Transport implements raft.Transport over gRPC.
type Transport struct {
	localAddr raft.ServerAddress
	consumer  chan raft.RPC
	server    *grpc.Server
	listener  net.Listener
	timeout   time.Duration

	mu    sync.Mutex
	conns map[raft.ServerAddress]*grpc.ClientConn

	heartbeatMu sync.Mutex
	heartbeatFn func(raft.RPC)
}

var _ raft.Transport = (*Transport)(nil)

// New listens on bindAddr and starts serving the Raft peer RPCs.
func New(bindAddr string) (*Transport, error) {
	lis, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	t := &Transport{
		localAddr: raft.ServerAddress(lis.Addr().String()),
		consumer:  make(chan raft.RPC),
		listener:  lis,
		conns:     make(map[raft.ServerAddress]*grpc.ClientConn),
		timeout:   10 * time.Second,
	}
	t.server = grpc.NewServer()
	t.server.RegisterService(&serviceDesc, t)
	go t.server.Serve(lis)
	return t, nil
}

// Close stops the gRPC server and tears down every cached peer
// connection.
func (t *Transport) Close() error {
	t.server.GracefulStop()
	t.mu.Lock()
	for addr, conn := range t.conns {
		conn.Close()
		delete(t.conns, addr)
	}
	t.mu.Unlock()
	return nil
}

func (t *Transport) Consumer() <-chan raft.RPC { return t.consumer }

func (t *Transport) LocalAddr() raft.ServerAddress { return t.localAddr }

func (t *Transport) EncodePeer(_ raft.ServerID, addr raft.ServerAddress) []byte {
	return []byte(addr)
}

func (t *Transport) DecodePeer(b []byte) raft.ServerAddress {
	return raft.ServerAddress(b)
}

func (t *Transport) SetHeartbeatHandler(cb func(raft.RPC)) {
	t.heartbeatMu.Lock()
	t.heartbeatFn = cb
	t.heartbeatMu.Unlock()
}

func (t *Transport) dial(target raft.ServerAddress) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[target]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(string(target), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	t.conns[target] = conn
	return conn, nil
}

func (t *Transport) AppendEntries(_ raft.ServerID, target raft.ServerAddress, args *raft.AppendEntriesRequest, resp *raft.AppendEntriesResponse) error {
	conn, err := t.dial(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	return conn.Invoke(ctx, methodAppendEntries, args, resp, grpc.CallContentSubtype(gobCodec{}.Name()))
}

func (t *Transport) RequestVote(_ raft.ServerID, target raft.ServerAddress, args *raft.RequestVoteRequest, resp *raft.RequestVoteResponse) error {
	conn, err := t.dial(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	return conn.Invoke(ctx, methodRequestVote, args, resp, grpc.CallContentSubtype(gobCodec{}.Name()))
}

func (t *Transport) InstallSnapshot(_ raft.ServerID, target raft.ServerAddress, args *raft.InstallSnapshotRequest, resp *raft.InstallSnapshotResponse, data io.Reader) error {
	conn, err := t.dial(target)
	if err != nil {
		return err
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	env := installSnapshotEnvelope{Req: *args, Data: payload}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	return conn.Invoke(ctx, methodInstallSnapshot, &env, resp, grpc.CallContentSubtype(gobCodec{}.Name()))
}

// syncAppendFuture adapts a synchronous AppendEntries call to the
// raft.AppendFuture interface AppendEntriesPipeline requires.
type syncAppendFuture struct {
	start time.Time
	req   *raft.AppendEntriesRequest
	resp  raft.AppendEntriesResponse
	err   error
}

func (f *syncAppendFuture) Error() error                         { return f.err }
func (f *syncAppendFuture) Start() time.Time                     { return f.start }
func (f *syncAppendFuture) Request() *raft.AppendEntriesRequest   { return f.req }
func (f *syncAppendFuture) Response() *raft.AppendEntriesResponse { return &f.resp }

// syncPipeline is a non-pipelined AppendPipeline: every AppendEntries
// call blocks on the network round trip instead of pipelining ahead of
// the response, trading replication throughput for a much smaller
// transport implementation — acceptable for this cluster's scale (see
// DESIGN.md).
type syncPipeline struct {
	trans  *Transport
	id     raft.ServerID
	target raft.ServerAddress
	out    chan raft.AppendFuture
}

func newSyncPipeline(trans *Transport, id raft.ServerID, target raft.ServerAddress) *syncPipeline {
	return &syncPipeline{trans: trans, id: id, target: target, out: make(chan raft.AppendFuture, 128)}
}

func (p *syncPipeline) AppendEntries(args *raft.AppendEntriesRequest, resp *raft.AppendEntriesResponse) (raft.AppendFuture, error) {
	f := &syncAppendFuture{start: time.Now(), req: args}
	f.err = p.trans.AppendEntries(p.id, p.target, args, &f.resp)
	*resp = f.resp
	p.out <- f
	return f, f.err
}

func (p *syncPipeline) Consumer() <-chan raft.AppendFuture { return p.out }

func (p *syncPipeline) Close() error {
	close(p.out)
	return nil
}

func (t *Transport) AppendEntriesPipeline(id raft.ServerID, target raft.ServerAddress) (raft.AppendPipeline, error) {
	return newSyncPipeline(t, id, target), nil
}

// --- server side: translate inbound gRPC calls into raft.RPC values on
// the consumer channel, the same hand-off raft.NetworkTransport uses
// internally for its own listener loop. ---

func (t *Transport) dispatch(ctx context.Context, command interface{}, reader io.Reader) (interface{}, error) {
	rpc := raft.RPC{
		Command:  command,
		Reader:   reader,
		RespChan: make(chan raft.RPCResponse, 1),
	}
	select {
	case t.consumer <- rpc:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rpcResp := <-rpc.RespChan:
		if rpcResp.Error != nil {
			return nil, rpcResp.Error
		}
		return rpcResp.Response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transport) handleAppendEntries(ctx context.Context, req *raft.AppendEntriesRequest) (*raft.AppendEntriesResponse, error) {
	out, err := t.dispatch(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	resp, ok := out.(*raft.AppendEntriesResponse)
	if !ok {
		return nil, errors.New("rpc: unexpected AppendEntries response type")
	}
	return resp, nil
}

func (t *Transport) handleRequestVote(ctx context.Context, req *raft.RequestVoteRequest) (*raft.RequestVoteResponse, error) {
	out, err := t.dispatch(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	resp, ok := out.(*raft.RequestVoteResponse)
	if !ok {
		return nil, errors.New("rpc: unexpected RequestVote response type")
	}
	return resp, nil
}

func (t *Transport) handleInstallSnapshot(ctx context.Context, env *installSnapshotEnvelope) (*raft.InstallSnapshotResponse, error) {
	req := env.Req
	out, err := t.dispatch(ctx, &req, bytes.NewReader(env.Data))
	if err != nil {
		return nil, err
	}
	resp, ok := out.(*raft.InstallSnapshotResponse)
	if !ok {
		return nil, errors.New("rpc: unexpected InstallSnapshot response type")
	}
	return resp, nil
}

// --- grpc.ServiceDesc wiring: hand-written in place of protoc-generated
// stubs, dispatching by method name the same way generated code would. ---

func appendEntriesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(raft.AppendEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	t := srv.(*Transport)
	if interceptor == nil {
		return t.handleAppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAppendEntries}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return t.handleAppendEntries(ctx, req.(*raft.AppendEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func requestVoteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(raft.RequestVoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	t := srv.(*Transport)
	if interceptor == nil {
		return t.handleRequestVote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRequestVote}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return t.handleRequestVote(ctx, req.(*raft.RequestVoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func installSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(installSnapshotEnvelope)
	if err := dec(in); err != nil {
		return nil, err
	}
	t := srv.(*Transport)
	if interceptor == nil {
		return t.handleInstallSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInstallSnapshot}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return t.handleInstallSnapshot(ctx, req.(*installSnapshotEnvelope))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Transport)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AppendEntries", Handler: appendEntriesHandler},
		{MethodName: "RequestVote", Handler: requestVoteHandler},
		{MethodName: "InstallSnapshot", Handler: installSnapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/cluster/rpc/transport.go",
}
